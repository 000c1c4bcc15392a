package servehttp_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"wetlands/bizerror"
	"wetlands/domain/wetland"
	"wetlands/servehttp"
	"wetlands/session"
	"wetlands/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestWetlandsHandler(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	servehttp.RegisterWetlandsHandler(router)

	t.Run("should answer 201 with the created record", func(t *testing.T) {
		wetland.CreateWetlandFunc = func(c wetland.WetlandCreation, s *session.Session) (*wetland.Wetland, error) {
			return &wetland.Wetland{ID: 100, Name: c.Name, Type: c.Type}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/wetlands",
			bytes.NewBufferString(`{"name":"east marsh","type":"marsh"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(ContainSubstring(`"id":"100"`))
		Expect(body).To(ContainSubstring(`"name":"east marsh"`))
	})

	t.Run("should answer 400 on an invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/wetlands", bytes.NewBufferString(`{"name":""}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
	})

	t.Run("should answer 400 on a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/wetlands/abc", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
	})

	t.Run("should map forbidden to 403", func(t *testing.T) {
		wetland.QueryWetlandsFunc = func(q wetland.WetlandQuery, s *session.Session) ([]wetland.Wetland, error) {
			return nil, bizerror.ErrForbidden
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/wetlands", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))
	})

	t.Run("should map not found to 404", func(t *testing.T) {
		wetland.DetailWetlandFunc = func(id types.ID, s *session.Session) (*wetland.Wetland, error) {
			return nil, bizerror.ErrNotFound
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/wetlands/404", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
	})

	t.Run("should answer the paged list", func(t *testing.T) {
		wetland.QueryWetlandsFunc = func(q wetland.WetlandQuery, s *session.Session) ([]wetland.Wetland, error) {
			return []wetland.Wetland{{ID: 1, Name: "east marsh"}, {ID: 2, Name: "west bog"}}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/wetlands", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"total":2`))
	})
}
