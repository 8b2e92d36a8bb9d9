package ngsi

import "encoding/json"

// Attribute name candidates for display-field extraction. The entity
// records are heterogeneous; absence of any candidate is tolerated.
var (
	nameCandidates     = []string{"Name", "name"}
	addressCandidates  = []string{"EquipmentAddress", "Address", "address"}
	positionCandidates = []string{"InstallationPosition", "Location", "location"}
)

// summarizeRecords extracts display fields from NGSIv2 entity records.
func summarizeRecords(records []json.RawMessage) []RecordSummary {
	summaries := make([]RecordSummary, 0, len(records))

	for _, raw := range records {
		var record map[string]json.RawMessage
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}

		summary := RecordSummary{}
		if idRaw, ok := record["id"]; ok {
			var id string
			if json.Unmarshal(idRaw, &id) == nil {
				summary.ID = id
			}
		}
		summary.Name = firstAttributeString(record, nameCandidates)
		summary.Address = firstAttributeString(record, addressCandidates)
		summary.Position = firstAttributeString(record, positionCandidates)

		summaries = append(summaries, summary)
	}

	return summaries
}

// firstAttributeString returns the first candidate attribute's value
// rendered as a string, descending through NGSIv2 attribute wrappers
// ({"type":..,"value":..}) and structured address values
// ({"FullAddress": {"value": ..}}).
func firstAttributeString(record map[string]json.RawMessage, candidates []string) string {
	for _, name := range candidates {
		raw, ok := record[name]
		if !ok {
			continue
		}
		if s := attributeString(raw); s != "" {
			return s
		}
	}
	return ""
}

func attributeString(raw json.RawMessage) string {
	// Plain string value.
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}

	// NGSIv2 attribute wrapper: unwrap "value" first.
	if value, ok := obj["value"]; ok {
		return attributeString(value)
	}

	// Structured address: prefer the full-address field.
	if full, ok := obj["FullAddress"]; ok {
		return attributeString(full)
	}

	return ""
}
