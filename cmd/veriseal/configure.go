package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively write a config file",
	Long: `Interactively write a config.yaml for the server.

You will be prompted for the B2 credentials, the bucket, the reports
listing key, and the listening port. Leave the credentials empty to run
with the remote store disabled.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().String("output", "config.yaml", "path of the config file to write")
	rootCmd.AddCommand(configureCmd)
}

// configFile mirrors the keys package config reads; kept separate so the
// configure command writes only what it asked for.
type configFile struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	B2 struct {
		KeyID          string `yaml:"key_id,omitempty"`
		ApplicationKey string `yaml:"application_key,omitempty"`
		BucketID       string `yaml:"bucket_id,omitempty"`
		BucketName     string `yaml:"bucket_name,omitempty"`
		PublicBaseURL  string `yaml:"public_base_url,omitempty"`
	} `yaml:"b2"`
	Registry struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path,omitempty"`
	} `yaml:"registry"`
	Reports struct {
		Key string `yaml:"key,omitempty"`
	} `yaml:"reports"`
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", output),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cf configFile
	var err error

	keyIDPrompt := promptui.Prompt{Label: "B2 key ID (empty to disable uploads)"}
	if cf.B2.KeyID, err = keyIDPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	if cf.B2.KeyID != "" {
		appKeyPrompt := promptui.Prompt{Label: "B2 application key", Mask: '*'}
		if cf.B2.ApplicationKey, err = appKeyPrompt.Run(); err != nil {
			return handlePromptError(err)
		}

		bucketPrompt := promptui.Prompt{Label: "Bucket name (empty to discover)"}
		if cf.B2.BucketName, err = bucketPrompt.Run(); err != nil {
			return handlePromptError(err)
		}

		basePrompt := promptui.Prompt{
			Label: "Public base URL override (empty to use the account download URL)",
			Validate: func(input string) error {
				if input == "" {
					return nil
				}
				parsedURL, parseErr := url.Parse(input)
				if parseErr != nil {
					return fmt.Errorf("invalid URL: %w", parseErr)
				}
				if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
					return errors.New("URL must start with http:// or https://")
				}
				return nil
			},
		}
		if cf.B2.PublicBaseURL, err = basePrompt.Run(); err != nil {
			return handlePromptError(err)
		}
	}

	reportsKeyPrompt := promptui.Prompt{Label: "Reports listing key (empty to keep the listing closed)", Mask: '*'}
	if cf.Reports.Key, err = reportsKeyPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	portPrompt := promptui.Prompt{
		Label:   "Listening port",
		Default: "8080",
		Validate: func(input string) error {
			p, convErr := strconv.Atoi(input)
			if convErr != nil || p < 1 || p > 65535 {
				return errors.New("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cf.Server.Port, _ = strconv.Atoi(portStr)

	cf.Registry.Backend = "file"
	cf.Registry.Path = "reports.json"

	data, err := yaml.Marshal(&cf)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s.\n", output)
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
