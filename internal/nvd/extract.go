package nvd

import (
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// Wire types for the slice of the NVD 2.0 response format we consume.
type (
	apiResponse struct {
		ResultsPerPage  int             `json:"resultsPerPage"`
		StartIndex      int             `json:"startIndex"`
		TotalResults    int             `json:"totalResults"`
		Vulnerabilities []vulnerability `json:"vulnerabilities"`
	}

	vulnerability struct {
		CVE cveItem `json:"cve"`
	}

	cveItem struct {
		ID           string        `json:"id"`
		Published    string        `json:"published"`
		LastModified string        `json:"lastModified"`
		Descriptions []description `json:"descriptions"`
		Metrics      cveMetrics    `json:"metrics"`
		References   []reference   `json:"references"`
	}

	description struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	}

	cveMetrics struct {
		CVSSMetricV31 []cvssMetricV3 `json:"cvssMetricV31"`
		CVSSMetricV30 []cvssMetricV3 `json:"cvssMetricV30"`
		CVSSMetricV2  []cvssMetricV2 `json:"cvssMetricV2"`
	}

	cvssMetricV3 struct {
		CVSSData cvssDataV3 `json:"cvssData"`
	}

	cvssDataV3 struct {
		BaseScore    float64 `json:"baseScore"`
		BaseSeverity string  `json:"baseSeverity"`
	}

	// In v2 metrics the severity sits beside cvssData, not inside it.
	cvssMetricV2 struct {
		CVSSData     cvssDataV2 `json:"cvssData"`
		BaseSeverity string     `json:"baseSeverity"`
	}

	cvssDataV2 struct {
		BaseScore float64 `json:"baseScore"`
	}

	reference struct {
		URL    string `json:"url"`
		Source string `json:"source"`
	}
)

// extractRecord maps one NVD item to the domain model. The result is not
// guaranteed to pass validation; items without an english description or
// a usable severity are rejected later at the ledger boundary.
func extractRecord(item cveItem, fetchedAt time.Time) model.Record {
	r := model.Record{
		ID:         item.ID,
		Source:     "NVD",
		ReportedAt: fetchedAt,
	}

	for _, d := range item.Descriptions {
		if d.Lang == "en" {
			r.Description = d.Value
			break
		}
	}

	// Prefer CVSS v3.1, then v3.0, then v2.
	switch {
	case len(item.Metrics.CVSSMetricV31) > 0:
		data := item.Metrics.CVSSMetricV31[0].CVSSData
		score := data.BaseScore
		r.CVSSScore = &score
		r.Severity = model.Severity(data.BaseSeverity)
	case len(item.Metrics.CVSSMetricV30) > 0:
		data := item.Metrics.CVSSMetricV30[0].CVSSData
		score := data.BaseScore
		r.CVSSScore = &score
		r.Severity = model.Severity(data.BaseSeverity)
	case len(item.Metrics.CVSSMetricV2) > 0:
		m := item.Metrics.CVSSMetricV2[0]
		score := m.CVSSData.BaseScore
		r.CVSSScore = &score
		r.Severity = model.Severity(m.BaseSeverity)
	}

	if ts, err := time.Parse(dateLayout, item.Published); err == nil {
		r.ReportedAt = ts.UTC()
	}

	for _, ref := range item.References {
		r.References = append(r.References, model.Reference{URL: ref.URL, Source: ref.Source})
	}
	return r
}
