package register

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
)

// TriggerPath is the location of the scaffolded workflow inside a checkout.
//
//nolint:gochecknoglobals // Read-only path.
var TriggerPath = filepath.Join(".github", "workflows", "notify-addon-repository.yml")

// DispatchEventType is the repository_dispatch event the upstream workflow listens to.
const DispatchEventType = "addon-released"

// GitHub expressions are handed to the template as values so that their
// braces never reach the template parser.
const (
	tokenExpression      = "${{ secrets.ADDON_REPOSITORY_TOKEN }}"
	repositoryExpression = "${{ github.repository }}"
	tagExpression        = "${{ github.event.release.tag_name }}"
)

const triggerTemplate = `{% autoescape off %}# Scaffolded by addon-register. Asks {{ upstream }} to regenerate
# the addon repository whenever this addon publishes a release.
name: Notify addon repository

on:
  release:
    types: [published]
  workflow_dispatch:

jobs:
  notify:
    runs-on: ubuntu-latest
    steps:
      - name: Dispatch {{ event_type }} to {{ upstream }}
        env:
          GH_TOKEN: {{ token }}
        run: |
          gh api repos/{{ upstream }}/dispatches \
            -f event_type={{ event_type }} \
            -f "client_payload[repository]={{ repository }}" \
            -f "client_payload[tag]={{ tag }}"
{% endautoescape %}`

//nolint:gochecknoglobals // Parsed once from a constant.
var triggerWorkflow = pongo2.Must(pongo2.FromString(triggerTemplate))

// RenderTrigger renders the workflow dispatching to upstream.
func RenderTrigger(upstream string) ([]byte, error) {
	return triggerWorkflow.ExecuteBytes(pongo2.Context{
		"upstream":   upstream,
		"event_type": DispatchEventType,
		"token":      tokenExpression,
		"repository": repositoryExpression,
		"tag":        tagExpression,
	})
}

// writeTrigger creates path with contents unless it already exists.
// It reports whether the file was created.
func writeTrigger(path string, contents []byte) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}

		return false, err
	}

	if _, err = f.Write(contents); err != nil {
		_ = f.Close()

		return false, fmt.Errorf("write %s: %w", path, err)
	}

	if err = f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}

	return true, nil
}
