package resource

import (
	"errors"
	"io"
	"io/ioutil"
	"wetlands/audit"
	"wetlands/bizerror"
	"wetlands/client/s3"
	"wetlands/idgen"
	"wetlands/persistence"
	"wetlands/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// Resource is an educational or research document. Metadata lives in the
// database, the payload in the OSS bucket under resources/<id>.
type Resource struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Title        string `json:"title"`
	Description  string `json:"description" sql:"type:TEXT"`
	ResourceType string `json:"resourceType"`
	Category     string `json:"category"`

	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`

	Public        bool `json:"public"`
	DownloadCount int  `json:"downloadCount"`

	UploaderID types.ID `json:"uploaderId"`
	ApproverID types.ID `json:"approverId"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	ApproveTime types.Timestamp `json:"approveTime" sql:"type:DATETIME(6)"`
}

type ResourceCreation struct {
	Title        string `json:"title" binding:"required,lte=200"`
	Description  string `json:"description"`
	ResourceType string `json:"resourceType" binding:"required,oneof=document research_paper guideline video image other"`
	Category     string `json:"category" binding:"omitempty,oneof=conservation research education policy technical"`

	FileName string `json:"fileName" binding:"required,lte=255"`
	MimeType string `json:"mimeType" binding:"lte=100"`
	Public   *bool  `json:"public"`
}

type ResourceQuery struct {
	Category     string `form:"category"`
	ResourceType string `form:"resourceType"`
}

var (
	resourceIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateResourceFunc   = CreateResource
	QueryResourcesFunc   = QueryResources
	DownloadResourceFunc = DownloadResource
	DeleteResourceFunc   = DeleteResource
)

func objectKey(id types.ID) string {
	return "resources/" + id.String()
}

func CreateResource(c ResourceCreation, content io.Reader, size int64, s *session.Session) (*Resource, error) {
	if !s.Can("create", "resources") {
		return nil, bizerror.ErrForbidden
	}

	public := true
	if c.Public != nil {
		public = *c.Public
	}
	r := Resource{ID: idgen.NextID(resourceIdWorker),
		Title: c.Title, Description: c.Description, ResourceType: c.ResourceType, Category: c.Category,
		FileName: c.FileName, FileSize: size, MimeType: c.MimeType, Public: public,
		UploaderID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}

	if err := s3.PutObjectFunc(objectKey(r.ID), content, s); err != nil {
		return nil, err
	}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionCreated, "resource", r.ID, r.Title, nil, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// QueryResources lists public resources, plus the caller's own uploads.
func QueryResources(q ResourceQuery, s *session.Session) ([]Resource, error) {
	if !s.Can("read", "resources") {
		return nil, bizerror.ErrForbidden
	}

	query := persistence.ActiveDataSourceManager.GormDB().Model(&Resource{}).
		Where("public = ? OR uploader_id = ?", true, s.Identity.ID).Order("create_time DESC")
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.ResourceType != "" {
		query = query.Where("resource_type = ?", q.ResourceType)
	}

	resources := []Resource{}
	if err := query.Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func DownloadResource(id types.ID, s *session.Session) (*Resource, []byte, error) {
	if !s.Can("read", "resources") {
		return nil, nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	r := Resource{}
	if err := db.Where(&Resource{ID: id}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	if !r.Public && r.UploaderID != s.Identity.ID {
		return nil, nil, bizerror.ErrForbidden
	}

	body, err := s3.GetObjectFunc(objectKey(id), s)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	defer body.Close()
	content, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Model(&Resource{}).Where("id = ?", id).
		Update("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		return nil, nil, err
	}
	return &r, content, nil
}

func DeleteResource(id types.ID, s *session.Session) error {
	if !s.Can("delete", "resources") {
		return bizerror.ErrForbidden
	}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		r := Resource{}
		if err := tx.Where(&Resource{ID: id}).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(Resource{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit.RecordFunc(audit.ActionDeleted, "resource", id, r.Title, nil, &s.Identity, tx)
	})
	if err != nil {
		return err
	}
	return s3.DeleteObjectFunc(objectKey(id), s)
}
