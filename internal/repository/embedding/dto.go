package embedding

import (
	"encoding/binary"
	"math"

	"github.com/foundry-app/foundry/internal/domain"
)

const (
	fieldReportType = "report_type"
	fieldVector     = "__vector"
)

func recordToFields(reportType domain.ReportType, vector []float32) map[string]string {
	return map[string]string{
		fieldReportType: string(reportType),
		fieldVector:     vectorToBytes(vector),
	}
}

func recordFromFields(fields map[string]string) (domain.ReportType, []float32) {
	return domain.ReportType(fields[fieldReportType]), bytesToVector(fields[fieldVector])
}

// vectorToBytes serializes []float32 to 4 bytes per float, little-endian.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
