package analytics

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"ocpp-monitor/models"

	"github.com/lorenzodonini/ocpp-go/ocpp1.6/types"
)

// MeterValuesMarker gates measurement and transaction extraction.
const MeterValuesMarker = "MeterValues"

// noTransaction is what charge points report when no session is running.
const noTransaction = "0"

var (
	reChargerFrom    = regexp.MustCompile(`(?i)from\s+([A-Z0-9]+):`)
	reChargePointID  = regexp.MustCompile(`(?i)"chargePointId"\s*:\s*"([^"]+)"`)
	reSampledValue   = regexp.MustCompile(`(?s)"sampledValue":\s*\[(.*?)\]`)
	reTransactionID  = regexp.MustCompile(`"transactionId"\s*:\s*(\d+)`)
	reLeadingNumeric = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
)

// Extractor pulls a single field out of raw log text. An empty result means
// the pattern did not match.
type Extractor func(text string) string

func regexExtractor(re *regexp.Regexp) Extractor {
	return func(text string) string {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return m[1]
	}
}

// ChargerExtractors are tried in order; the first match wins. Producers log
// either "... from CP001: ..." or a JSON body with chargePointId.
var ChargerExtractors = []Extractor{
	regexExtractor(reChargerFrom),
	regexExtractor(reChargePointID),
}

func firstMatch(text string, extractors []Extractor) string {
	for _, extract := range extractors {
		if v := extract(text); v != "" {
			return v
		}
	}
	return ""
}

// ExtractChargerID returns the charger identifier or "" when none is present.
func ExtractChargerID(text string) string {
	return firstMatch(text, ChargerExtractors)
}

// ParseStatus reports what happened to the embedded measurement payload.
type ParseStatus int

const (
	// ParseSkipped means the record carries no measurement payload.
	ParseSkipped ParseStatus = iota
	// ParseOK means the sampledValue array was decoded.
	ParseOK
	// ParseMalformed means a payload was present but could not be decoded.
	ParseMalformed
)

func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "ok"
	case ParseMalformed:
		return "malformed"
	default:
		return "skipped"
	}
}

// Fragment is the structured view of one LogRecord.
type Fragment struct {
	Record        models.LogRecord
	ChargerID     string
	TransactionID string
	Samples       []models.MeasurementSample
	Status        ParseStatus
	MeterValues   bool
	IsError       bool
}

type sampledValue struct {
	Value     json.RawMessage `json:"value"`
	Measurand types.Measurand `json:"measurand"`
}

// Parse never fails: malformed payloads leave the fragment without samples
// and set Status to ParseMalformed.
func Parse(record models.LogRecord) Fragment {
	text := record.Text
	f := Fragment{
		Record:    record,
		ChargerID: ExtractChargerID(text),
		IsError:   IsErrorRecord(text),
	}

	if !strings.Contains(text, MeterValuesMarker) {
		return f
	}
	f.MeterValues = true

	if m := reTransactionID.FindStringSubmatch(text); m != nil && m[1] != noTransaction {
		f.TransactionID = m[1]
	}

	m := reSampledValue.FindStringSubmatch(text)
	if m == nil {
		return f
	}

	var values []sampledValue
	if err := json.Unmarshal([]byte("["+m[1]+"]"), &values); err != nil {
		f.Status = ParseMalformed
		return f
	}
	f.Status = ParseOK

	for _, v := range values {
		value, ok := parseValue(v.Value)
		if !ok {
			continue
		}
		f.Samples = append(f.Samples, models.MeasurementSample{
			Measurand: classifyMeasurand(v.Measurand),
			Value:     value,
		})
	}
	return f
}

func classifyMeasurand(m types.Measurand) models.Measurand {
	switch m {
	case types.MeasurandEnergyActiveImportRegister:
		return models.MeasurandEnergy
	case types.MeasurandPowerActiveImport:
		return models.MeasurandPower
	case types.MeasurandVoltage:
		return models.MeasurandVoltage
	default:
		return models.MeasurandOther
	}
}

// parseValue reads a sampled value that may be a JSON number or a string
// with a leading number, such as "230.1" or "230.1V".
func parseValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	num := reLeadingNumeric.FindString(strings.TrimSpace(s))
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsErrorRecord matches "error" case-insensitively anywhere in the text,
// unless "noerror" also appears anywhere in it.
func IsErrorRecord(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "error") && !strings.Contains(lower, "noerror")
}
