package router

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneflow/backend/internal/interfaces/http/middleware"
)

type swaggerDoc struct {
	Swagger string                               `json:"swagger"`
	Info    map[string]string                    `json:"info"`
	Paths   map[string]map[string]map[string]any `json:"paths"`
	Defs    map[string]any                       `json:"definitions"`
}

func TestOperationDocs_CoverTheRouteTable(t *testing.T) {
	routes := FinanceGroup(bareHandlers(), headerAuth).Routes("")
	for _, r := range routes {
		_, ok := operationDocs[r.Method+" "+r.Path]
		assert.True(t, ok, "no API doc entry for %s %s", r.Method, r.Path)
	}
	assert.Len(t, operationDocs, len(routes))
}

func TestBuildOpenAPI(t *testing.T) {
	raw, err := BuildOpenAPI("oneflow", "1.2.3", "/api/v1", FinanceGroup(bareHandlers(), headerAuth).Routes("/api/v1"))
	require.NoError(t, err)

	var doc swaggerDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "1.2.3", doc.Info["version"])

	t.Run("gin parameters become path templates", func(t *testing.T) {
		op := doc.Paths["/api/v1/finance/documents/{type}/{id}/status"]["patch"]
		require.NotNil(t, op)
		assert.Equal(t, "Move a document to another status", op["summary"])

		params, _ := op["parameters"].([]any)
		names := make([]string, 0, len(params))
		for _, p := range params {
			names = append(names, p.(map[string]any)["name"].(string))
		}
		assert.ElementsMatch(t, []string{"type", "id", "body"}, names)
	})

	t.Run("health has no security requirement", func(t *testing.T) {
		health := doc.Paths["/health"]["get"]
		require.NotNil(t, health)
		assert.NotContains(t, health, "security")
		assert.Contains(t, doc.Paths["/api/v1/finance/expenses"]["get"], "security")
	})

	t.Run("approver routes document the role refusal", func(t *testing.T) {
		responses := doc.Paths["/api/v1/finance/requests/{id}/approve"]["post"]["responses"].(map[string]any)
		assert.Contains(t, responses, "403")
		responses = doc.Paths["/api/v1/finance/requests/{id}/download"]["get"]["responses"].(map[string]any)
		assert.NotContains(t, responses, "403")
	})

	t.Run("request bodies reference definitions with required fields", func(t *testing.T) {
		def, ok := doc.Defs["ChangeStatusRequest"].(map[string]any)
		require.True(t, ok)
		assert.ElementsMatch(t, []any{"status", "version"}, def["required"])
		assert.Contains(t, doc.Defs, "LineItemInput")
		assert.Contains(t, doc.Defs, "DocumentResponse")
	})
}

func TestFinanceAPI_Swagger(t *testing.T) {
	t.Run("serves the generated document without a token", func(t *testing.T) {
		api := newFinanceAPI(t)

		w := api.do(nil, http.MethodGet, "/swagger/doc.json", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var doc swaggerDoc
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "oneflow-test", doc.Info["title"])
		assert.Contains(t, doc.Paths, "/api/v1/finance/calculate")
		assert.Contains(t, doc.Paths, "/api/v1/finance/requests/{id}/reject")
	})

	t.Run("serves the UI", func(t *testing.T) {
		api := newFinanceAPI(t)

		w := api.do(nil, http.MethodGet, "/swagger/index.html", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "swagger-ui")
	})

	t.Run("disabled answers not found", func(t *testing.T) {
		api := newFinanceAPI(t, func(cfg *EngineConfig) {
			cfg.Swagger = middleware.SwaggerConfig{}
		})

		w := api.do(nil, http.MethodGet, "/swagger/doc.json", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	})
}
