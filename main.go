package main

import (
	"log"
	"net/http"
	"wetlands/account"
	"wetlands/audit"
	"wetlands/bizerror"
	"wetlands/client/es"
	"wetlands/client/s3"
	"wetlands/common"
	"wetlands/domain/alert"
	"wetlands/domain/observation"
	"wetlands/domain/project"
	"wetlands/domain/report"
	"wetlands/domain/resource"
	"wetlands/domain/sensor"
	"wetlands/domain/settings"
	"wetlands/domain/wetland"
	"wetlands/indices"
	"wetlands/infra/tracing"
	"wetlands/persistence"
	"wetlands/servehttp"
	"wetlands/session"
	"wetlands/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	closer := tracing.Bootstrap()
	if closer != nil {
		defer closer.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(
		&account.User{},
		&audit.AuditLog{},
		&wetland.Wetland{},
		&sensor.Sensor{},
		&sensor.Reading{},
		&observation.Observation{},
		&alert.Alert{},
		&report.CommunityReport{},
		&report.ReportComment{},
		&project.ConservationProject{},
		&resource.Resource{},
		&settings.UserSetting{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		log.Fatalf("security configuration failed %v\n", err)
	}

	s3.Bootstrap()
	es.CreateClientFromEnv()
	report.IndexReportFunc = indices.IndexReportFunc
	report.DeindexReportFunc = indices.DeindexReportFunc

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	sessions.RegisterSessionsHandler(engine)
	account.RegisterSignupHandler(engine)

	auth := session.SimpleAuthFilter()
	sessions.RegisterSessionHandler(engine, auth)
	account.RegisterUsersHandler(engine, auth)

	servehttp.RegisterWetlandsHandler(engine, auth)
	servehttp.RegisterSensorsHandler(engine, auth)
	servehttp.RegisterReadingsHandler(engine, auth)
	servehttp.RegisterObservationsHandler(engine, auth)
	servehttp.RegisterAlertsHandler(engine, auth)
	servehttp.RegisterReportsHandler(engine, auth)
	servehttp.RegisterProjectsHandler(engine, auth)
	servehttp.RegisterResourcesHandler(engine, auth)
	servehttp.RegisterSettingsHandler(engine, auth)
	servehttp.RegisterDashboardHandler(engine, auth)
	servehttp.RegisterAuditLogsHandler(engine, auth)
	servehttp.RegisterExportHandler(engine, auth)

	servehttp.StartHTTPServer(engine)
}
