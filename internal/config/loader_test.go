package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/labelaudit/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Lookback, convey.ShouldEqual, 7*24*time.Hour)
				convey.So(cfg.TopN, convey.ShouldEqual, 5)
				convey.So(len(cfg.LabelsOfInterest), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LABELAUDIT_PROJECT_ID", "ca2111d8")
			_ = os.Setenv("LABELAUDIT_LOOKBACK", "336h")
			_ = os.Setenv("LABELAUDIT_TOP_N", "3")
			_ = os.Setenv("LABELAUDIT_JOIN_POLICY", "time-ordered")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ProjectID, convey.ShouldEqual, "ca2111d8")
				convey.So(cfg.Lookback, convey.ShouldEqual, 14*24*time.Hour)
				convey.So(cfg.TopN, convey.ShouldEqual, 3)
				convey.So(cfg.JoinPolicy, convey.ShouldEqual, "time-ordered")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
project_id: "fb5c3af6"
events_file: "/tmp/logs.jsonl"
lookback: "168h"
out_dir: "/tmp/reports"
top_n: 2
labels_of_interest:
  - name: "Grounding"
    label: "1. UI Grounding"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ProjectID, convey.ShouldEqual, "fb5c3af6")
				convey.So(cfg.EventsFile, convey.ShouldEqual, "/tmp/logs.jsonl")
				convey.So(cfg.OutDir, convey.ShouldEqual, "/tmp/reports")
				convey.So(cfg.TopN, convey.ShouldEqual, 2)
			})

			convey.Convey("And the catalogue should replace the default one", func() {
				convey.So(len(cfg.LabelsOfInterest), convey.ShouldEqual, 1)
				convey.So(cfg.LabelsOfInterest[0].Name, convey.ShouldEqual, "Grounding")
				convey.So(cfg.LabelsOfInterest[0].Label, convey.ShouldEqual, "1. UI Grounding")
			})
		})

		convey.Convey("When the file path comes from the environment", func() {
			tmpFile := createTempConfigFile("top_n: 9\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("LABELAUDIT_CONFIG", tmpFile)
			_ = os.Setenv("LABELAUDIT_OUT_DIR", "/var/reports")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then file and env are layered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 9)
				convey.So(cfg.OutDir, convey.ShouldEqual, "/var/reports")
			})
		})

		convey.Convey("When env overrides a file value", func() {
			tmpFile := createTempConfigFile("top_n: 9\nlog_level: debug\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("LABELAUDIT_TOP_N", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then the environment wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 4)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.Load(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("LABELAUDIT_TOP_N", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"LABELAUDIT_CONFIG",
		"LABELAUDIT_PROJECT_ID",
		"LABELAUDIT_LOOKBACK",
		"LABELAUDIT_TOP_N",
		"LABELAUDIT_JOIN_POLICY",
		"LABELAUDIT_OUT_DIR",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "labelaudit-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
