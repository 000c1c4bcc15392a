package indices

import (
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/client/es"
	"wetlands/session"
)

type ReportSearch struct {
	Keyword  string   `form:"keyword"`
	Status   []string `form:"status"`
	Severity []string `form:"severity"`
}

var SearchReportsFunc = SearchReports

func SearchReports(q ReportSearch, s *session.Session) ([]ReportDocument, error) {
	if !s.Can("read", "community_reports") {
		return nil, bizerror.ErrForbidden
	}

	musts := []es.H{}
	if q.Keyword != "" {
		musts = append(musts, es.H{"multi_match": es.H{
			"query":  q.Keyword,
			"fields": []string{"title", "description", "location"},
		}})
	}
	if len(q.Status) > 0 {
		musts = append(musts, es.H{"terms": es.H{"status": q.Status}})
	}
	if len(q.Severity) > 0 {
		musts = append(musts, es.H{"terms": es.H{"severity": q.Severity}})
	}
	// community members only ever see their own reports
	if s.Role == authority.RoleCommunityMember {
		musts = append(musts, es.H{"term": es.H{"reporterId": s.Identity.ID}})
	}

	query := es.H{
		"size": 100,
		"sort": []es.H{{"createTime": es.H{"order": "desc"}}},
		"query": es.H{
			"bool": es.H{"must": musts},
		},
	}

	result, err := es.SearchFunc(ReportIndexName, query, s)
	if err != nil {
		return nil, err
	}
	return ExtractReportDocuments(result)
}
