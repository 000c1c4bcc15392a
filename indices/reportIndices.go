package indices

import (
	"encoding/json"
	"wetlands/client/es"
	"wetlands/domain/report"
	"wetlands/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var ReportIndexName = "community_reports"

var (
	IndexReportFunc   = IndexReport
	DeindexReportFunc = DeindexReport
)

// ReportDocument is the indexed projection of a community report.
type ReportDocument struct {
	report.CommunityReport
}

// IndexReport and DeindexReport run after the database transaction has
// committed, outside any request span.
func IndexReport(r report.CommunityReport) {
	if err := es.IndexFunc(ReportIndexName, r.ID, &ReportDocument{CommunityReport: r}, &session.Session{}); err != nil {
		logrus.Warnf("failed to index report %s: %v\n", r.ID, err)
	}
}

func DeindexReport(id types.ID) {
	if err := es.DeleteDocumentByIdFunc(ReportIndexName, id, &session.Session{}); err != nil {
		logrus.Warnf("failed to deindex report %s: %v\n", id, err)
	}
}

func ExtractReportDocuments(result *es.ESSearchResult) ([]ReportDocument, error) {
	docs := []ReportDocument{}
	for _, hit := range result.Hits.Hits {
		doc := ReportDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
