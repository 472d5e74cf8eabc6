package extraction

import (
	"context"
	"encoding/binary"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ayurankh/claims-processor/internal/store/model"
)

// Metadata field names surfaced by the DICOM adapter.
const (
	FieldPatientID       = "PatientID"
	FieldPatientName     = "PatientName"
	FieldAccessionNumber = "AccessionNumber"
	FieldStudyDate       = "StudyDate"
	FieldModality        = "Modality"
)

type dicomTag struct {
	group, element uint16
}

var wantedTags = map[dicomTag]string{
	{0x0008, 0x0020}: FieldStudyDate,
	{0x0008, 0x0050}: FieldAccessionNumber,
	{0x0008, 0x0060}: FieldModality,
	{0x0010, 0x0010}: FieldPatientName,
	{0x0010, 0x0020}: FieldPatientID,
}

// DicomAdapter reads identity metadata out of a DICOM file. It walks the
// data-element stream directly (explicit and implicit little-endian VR),
// tolerating files without the 128-byte preamble the way pydicom does with
// force=True. Absent tags fall back to the "N/A" sentinel instead of failing.
type DicomAdapter struct{}

func NewDicomAdapter() *DicomAdapter {
	return &DicomAdapter{}
}

func (a *DicomAdapter) Extract(_ context.Context, path string) Result {
	return capture(model.RoleDicom, func() Result {
		data, err := os.ReadFile(path)
		if err != nil {
			return errorResult(model.RoleDicom, errors.Wrap(err, "read dicom file"))
		}

		meta, err := parseDicom(data)
		if err != nil {
			return errorResult(model.RoleDicom, err)
		}
		return metadataResult(model.RoleDicom, meta)
	})
}

// vrWithLongLength lists the explicit VRs encoded with a 2-byte reserved
// field and a 4-byte length.
var vrWithLongLength = map[string]bool{
	"OB": true, "OW": true, "OF": true, "SQ": true, "UT": true, "UN": true,
}

func parseDicom(data []byte) (map[string]string, error) {
	meta := map[string]string{
		FieldPatientID:       NotAvailable,
		FieldPatientName:     NotAvailable,
		FieldAccessionNumber: NotAvailable,
		FieldStudyDate:       NotAvailable,
		FieldModality:        NotAvailable,
	}

	offset := 0
	hasMagic := len(data) >= 132 && string(data[128:132]) == "DICM"
	if hasMagic {
		offset = 132
	}

	found := 0
	parsed := 0
	for offset+8 <= len(data) {
		group := binary.LittleEndian.Uint16(data[offset:])
		element := binary.LittleEndian.Uint16(data[offset+2:])

		var valueOffset, valueLen int
		vr := string(data[offset+4 : offset+6])
		switch {
		case isExplicitVR(vr) && vrWithLongLength[vr]:
			if offset+12 > len(data) {
				return finishDicom(meta, hasMagic, parsed)
			}
			valueLen = int(binary.LittleEndian.Uint32(data[offset+8:]))
			valueOffset = offset + 12
		case isExplicitVR(vr):
			valueLen = int(binary.LittleEndian.Uint16(data[offset+6:]))
			valueOffset = offset + 8
		default:
			// Implicit VR: 4-byte length follows the tag.
			valueLen = int(binary.LittleEndian.Uint32(data[offset+4:]))
			valueOffset = offset + 8
		}

		// Undefined lengths mark sequences or pixel data; the identity
		// tags of interest are all before them.
		if valueLen == int(^uint32(0)) || valueOffset+valueLen > len(data) {
			return finishDicom(meta, hasMagic, parsed)
		}

		parsed++
		if name, ok := wantedTags[dicomTag{group, element}]; ok {
			value := strings.TrimRight(string(data[valueOffset:valueOffset+valueLen]), " \x00")
			if value != "" {
				meta[name] = value
			}
			found++
		}

		// All identity tags live in groups 0008 and 0010.
		if group > 0x0010 && found == len(wantedTags) {
			break
		}
		offset = valueOffset + valueLen
	}

	return finishDicom(meta, hasMagic, parsed)
}

func finishDicom(meta map[string]string, hasMagic bool, parsed int) (map[string]string, error) {
	if !hasMagic && parsed == 0 {
		return nil, errors.New("not a dicom stream: no preamble and no readable data elements")
	}
	return meta, nil
}

func isExplicitVR(vr string) bool {
	if len(vr) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if vr[i] < 'A' || vr[i] > 'Z' {
			return false
		}
	}
	return true
}
