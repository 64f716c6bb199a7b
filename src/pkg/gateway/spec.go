package gateway

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	Tag        = "CaptionService"
	PathPrefix = "/v1/captions"
)

//go:embed docs/openapi.yaml
var openAPISpecs string

const openAPITemplate = `%s:
  post:
    tags:
      - %s
    summary: Run the pipeline
    description: Fetches a picture captioned with the text, uploads it and records its metadata
    requestBody:
      required: true
      content:
        application/json:
          schema:
            type: object
            properties:
              text:
                type: string
                description: Caption rendered onto the picture
            required:
              - text
    responses:
      '200':
        description: Run completed
        content:
          application/json:
            schema:
              type: object
              properties:
                run_id:
                  type: string
                text:
                  type: string
                size_bytes:
                  type: integer
                  format: int64
                remote_path:
                  type: string
                metadata_file:
                  type: string
                record:
                  $ref: '#/components/schemas/Record'
      '400':
        description: Bad request - empty text or malformed body
      '502':
        description: Image service or storage API failed
      '500':
        description: Internal server error
  get:
    tags:
      - %s
    summary: List runs
    description: Lists completed runs recorded in the history store
    responses:
      '200':
        description: Runs retrieved successfully
        content:
          application/json:
            schema:
              type: object
              properties:
                runs:
                  type: array
                  items:
                    $ref: '#/components/schemas/Entry'
      '500':
        description: Internal server error
%s/{runId}:
  get:
    tags:
      - %s
    summary: Get run
    description: Returns one run from the history store
    parameters:
      - name: runId
        in: path
        required: true
        schema:
          type: string
        description: The ID of the run
    responses:
      '200':
        description: Run found
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Entry'
      '404':
        description: Run not found
      '500':
        description: Internal server error`

func GetOpenAPISpec(rootPath, tag string) string {
	if rootPath == "" || tag == "" {
		return ""
	}

	// Ensure rootPath doesn't have trailing slash
	rootPath = strings.TrimSuffix(rootPath, "/")

	return fmt.Sprintf(openAPITemplate, rootPath, tag, tag, rootPath, tag)
}

// GenerateOpenAPISpecs merges the caption paths into the base document.
func GenerateOpenAPISpecs() (string, error) {
	var spec map[string]interface{}
	if err := yaml.Unmarshal([]byte(openAPISpecs), &spec); err != nil {
		return "", fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}

	spec["tags"] = []map[string]string{{"name": Tag}}

	var captionsSpec map[string]interface{}
	if err := yaml.Unmarshal([]byte(GetOpenAPISpec(PathPrefix, Tag)), &captionsSpec); err != nil {
		return "", fmt.Errorf("failed to parse captions OpenAPI spec: %w", err)
	}

	paths, ok := spec["paths"].(map[string]interface{})
	if !ok || paths == nil {
		paths = map[string]interface{}{}
	}
	for k, v := range captionsSpec {
		paths[k] = v
	}
	spec["paths"] = paths

	bytes, bytesErr := yaml.Marshal(spec)
	if bytesErr != nil {
		return "", fmt.Errorf("failed to marshal OpenAPI spec: %w", bytesErr)
	}
	return string(bytes), nil
}
