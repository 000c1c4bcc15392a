package resource_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"wetlands/audit"
	"wetlands/authority"
	"wetlands/bizerror"
	"wetlands/client/s3"
	"wetlands/domain/resource"
	"wetlands/persistence"
	"wetlands/session"
	"wetlands/testinfra"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupResourcesTestDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartMysqlTestDatabase("resources")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB().AutoMigrate(&resource.Resource{}, &audit.AuditLog{}).Error).To(BeNil())
	t.Cleanup(func() { testinfra.StopMysqlTestDatabase(testDatabase) })

	s3.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...oss.Option) error {
		return nil
	}
	s3.GetObjectFunc = func(key string, s *session.Session, opts ...oss.Option) (io.ReadCloser, error) {
		return ioutil.NopCloser(bytes.NewBufferString("file-body")), nil
	}
	s3.DeleteObjectFunc = func(key string, s *session.Session, opts ...oss.Option) error {
		return nil
	}
	return testDatabase
}

func TestDownloadResource(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupResourcesTestDatabase(t)

	uploader := testinfra.BuildSession(1, authority.RoleResearcher)
	r, err := resource.CreateResource(resource.ResourceCreation{
		Title: "wetland field guide", ResourceType: "guideline", Category: "education",
		FileName: "guide.pdf", MimeType: "application/pdf"},
		strings.NewReader("file-body"), 9, uploader)
	Expect(err).To(BeNil())
	Expect(r.Public).To(BeTrue())

	t.Run("should answer the payload and count the download", func(t *testing.T) {
		reader := testinfra.BuildSession(9, authority.RoleCommunityMember)
		record, content, err := resource.DownloadResource(r.ID, reader)
		Expect(err).To(BeNil())
		Expect(record.Title).To(Equal("wetland field guide"))
		Expect(string(content)).To(Equal("file-body"))

		fetched := resource.Resource{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", r.ID).First(&fetched).Error).To(BeNil())
		Expect(fetched.DownloadCount).To(Equal(1))

		_, _, err = resource.DownloadResource(r.ID, reader)
		Expect(err).To(BeNil())
		Expect(testDatabase.DS.GormDB().Where("id = ?", r.ID).First(&fetched).Error).To(BeNil())
		Expect(fetched.DownloadCount).To(Equal(2))
	})

	t.Run("should keep a private resource to its uploader", func(t *testing.T) {
		private := false
		p, err := resource.CreateResource(resource.ResourceCreation{
			Title: "draft survey", ResourceType: "document",
			FileName: "draft.pdf", Public: &private},
			strings.NewReader("file-body"), 9, uploader)
		Expect(err).To(BeNil())

		_, _, err = resource.DownloadResource(p.ID, testinfra.BuildSession(9, authority.RoleCommunityMember))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		_, _, err = resource.DownloadResource(p.ID, uploader)
		Expect(err).To(BeNil())
	})

	t.Run("should answer not found for a missing id", func(t *testing.T) {
		_, _, err := resource.DownloadResource(types.ID(424242), uploader)
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})
}
