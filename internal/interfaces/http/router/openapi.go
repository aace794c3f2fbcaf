package router

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/interfaces/http/dto"
	"github.com/oneflow/backend/internal/interfaces/http/handler"
)

// operationDoc describes one finance endpoint in the served API document
type operationDoc struct {
	summary  string
	tag      string
	status   int
	body     any
	result   any
	query    any
	list     bool
	upload   bool
	format   bool
	produces []string
	approver bool
}

var operationDocs = map[string]operationDoc{
	"POST /finance/calculate": {summary: "Preview line amounts and totals", tag: "documents",
		body: financeapp.CalculateRequest{}, result: financeapp.TotalsResponse{}},
	"GET /finance/integrity": {summary: "List records that reference unknown projects", tag: "transfer",
		result: financeapp.IntegrityReport{}},
	"POST /finance/import/:type": {summary: "Import a CSV or XLSX file into one family", tag: "transfer",
		status: http.StatusCreated, upload: true, format: true, result: financeapp.ImportResult{}},
	"GET /finance/export/:type": {summary: "Export one family as CSV or XLSX", tag: "transfer", format: true,
		produces: []string{"text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}},

	"GET /finance/documents/:type": {summary: "List documents of one type", tag: "documents",
		query: financeapp.DocumentListFilter{}, list: true, result: financeapp.DocumentResponse{}},
	"POST /finance/documents/:type": {summary: "Create a document", tag: "documents", status: http.StatusCreated,
		body: financeapp.CreateDocumentRequest{}, result: financeapp.DocumentResponse{}},
	"GET /finance/documents/:type/:id": {summary: "Get a document", tag: "documents",
		result: financeapp.DocumentResponse{}},
	"PUT /finance/documents/:type/:id": {summary: "Replace a document's header and items", tag: "documents",
		body: financeapp.UpdateDocumentRequest{}, result: financeapp.DocumentResponse{}},
	"DELETE /finance/documents/:type/:id": {summary: "Delete a document", tag: "documents",
		status: http.StatusNoContent},
	"PATCH /finance/documents/:type/:id/status": {summary: "Move a document to another status", tag: "documents",
		body: financeapp.ChangeStatusRequest{}, result: financeapp.DocumentResponse{}},
	"GET /finance/documents/:type/:id/pdf": {summary: "Render a document as PDF", tag: "documents",
		produces: []string{"application/pdf"}},

	"GET /finance/expenses": {summary: "List expenses", tag: "expenses",
		query: financeapp.ExpenseListFilter{}, list: true, result: financeapp.ExpenseResponse{}},
	"POST /finance/expenses": {summary: "Record an expense", tag: "expenses", status: http.StatusCreated,
		body: financeapp.ExpenseRequest{}, result: financeapp.ExpenseResponse{}},
	"GET /finance/expenses/:id": {summary: "Get an expense", tag: "expenses",
		result: financeapp.ExpenseResponse{}},
	"PUT /finance/expenses/:id": {summary: "Replace an expense", tag: "expenses",
		body: financeapp.ExpenseRequest{}, result: financeapp.ExpenseResponse{}},
	"DELETE /finance/expenses/:id": {summary: "Delete an expense", tag: "expenses",
		status: http.StatusNoContent},

	"GET /finance/requests": {summary: "List the document requests visible to the caller", tag: "requests",
		query: financeapp.RequestListFilter{}, list: true, result: financeapp.DocumentRequestResponse{}},
	"POST /finance/requests": {summary: "Ask for a document", tag: "requests", status: http.StatusCreated,
		body: financeapp.CreateDocumentRequestInput{}, result: financeapp.DocumentRequestResponse{}},
	"GET /finance/requests/:id": {summary: "Get a document request", tag: "requests",
		result: financeapp.DocumentRequestResponse{}},
	"POST /finance/requests/:id/approve": {summary: "Approve a pending request", tag: "requests",
		approver: true, result: financeapp.DocumentRequestResponse{}},
	"POST /finance/requests/:id/reject": {summary: "Reject a pending request", tag: "requests",
		approver: true, body: financeapp.RejectDocumentRequestInput{}, result: financeapp.DocumentRequestResponse{}},
	"GET /finance/requests/:id/download": {summary: "Get a time-limited link to an approved document", tag: "requests",
		result: financeapp.DownloadResponse{}},
}

// BuildOpenAPI renders a Swagger 2.0 document for the given API routes.
// Paths under apiBase require a bearer token; /health does not.
func BuildOpenAPI(title, version, apiBase string, routes []Route) ([]byte, error) {
	defs := map[string]any{}
	paths := map[string]map[string]any{}

	paths["/health"] = map[string]any{
		"get": map[string]any{
			"summary":   "Liveness and dependency checks",
			"tags":      []string{"system"},
			"produces":  []string{"application/json"},
			"responses": map[string]any{"200": map[string]any{"description": "OK", "schema": schemaFor(reflect.TypeOf(handler.HealthResponse{}), defs)}},
		},
	}

	errorSchema := schemaFor(reflect.TypeOf(dto.Response{}), defs)
	for _, route := range routes {
		rel := strings.TrimPrefix(route.Path, apiBase)
		meta, ok := operationDocs[route.Method+" "+rel]
		if !ok {
			meta = operationDoc{summary: route.Method + " " + rel, tag: "finance"}
		}
		path, params := swaggerPath(route.Path)
		if paths[path] == nil {
			paths[path] = map[string]any{}
		}
		paths[path][strings.ToLower(route.Method)] = operation(meta, params, errorSchema, defs)
	}

	doc := map[string]any{
		"swagger": "2.0",
		"info": map[string]any{
			"title":   title,
			"version": version,
		},
		"basePath": "/",
		"paths":    paths,
		"securityDefinitions": map[string]any{
			"BearerAuth": map[string]any{"type": "apiKey", "in": "header", "name": "Authorization"},
		},
		"definitions": defs,
	}
	return json.Marshal(doc)
}

func operation(meta operationDoc, params []map[string]any, errorSchema map[string]any, defs map[string]any) map[string]any {
	op := map[string]any{
		"summary":  meta.summary,
		"tags":     []string{meta.tag},
		"security": []map[string][]string{{"BearerAuth": {}}},
		"produces": []string{"application/json"},
	}
	if len(meta.produces) > 0 {
		op["produces"] = meta.produces
	}

	params = append(params, queryParams(meta.query)...)
	switch {
	case meta.upload:
		op["consumes"] = []string{"multipart/form-data"}
		params = append(params,
			map[string]any{"name": "file", "in": "formData", "type": "file", "required": true},
			map[string]any{"name": handler.IdempotencyKeyHeader, "in": "header", "type": "string"},
		)
	case meta.body != nil:
		op["consumes"] = []string{"application/json"}
		params = append(params, map[string]any{
			"name": "body", "in": "body", "required": true,
			"schema": schemaFor(reflect.TypeOf(meta.body), defs),
		})
	}
	if meta.format {
		params = append(params, map[string]any{"name": "format", "in": "query", "type": "string", "enum": []string{"csv", "xlsx"}})
	}
	if len(params) > 0 {
		op["parameters"] = params
	}

	status := meta.status
	if status == 0 {
		status = http.StatusOK
	}
	ok := map[string]any{"description": http.StatusText(status)}
	if meta.result != nil {
		ok["schema"] = successSchema(schemaFor(reflect.TypeOf(meta.result), defs), meta.list, defs)
	}
	failure := map[string]any{"description": "Error envelope", "schema": errorSchema}
	responses := map[string]any{
		strconv.Itoa(status): ok,
		"400":                failure,
		"401":                failure,
		"404":                failure,
	}
	if meta.approver {
		responses["403"] = failure
	}
	op["responses"] = responses
	return op
}

// successSchema wraps a data schema in the success response shape
func successSchema(data map[string]any, list bool, defs map[string]any) map[string]any {
	props := map[string]any{"success": map[string]any{"type": "boolean"}}
	if list {
		props["data"] = map[string]any{"type": "array", "items": data}
		props["meta"] = schemaFor(reflect.TypeOf(dto.Meta{}), defs)
	} else {
		props["data"] = data
	}
	return map[string]any{"type": "object", "properties": props}
}

// swaggerPath rewrites gin parameters (:id) into {id} and documents them
func swaggerPath(ginPath string) (string, []map[string]any) {
	segments := strings.Split(ginPath, "/")
	var params []map[string]any
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		segments[i] = "{" + name + "}"
		p := map[string]any{"name": name, "in": "path", "required": true, "type": "string"}
		switch {
		case name == "id":
			p["format"] = "uuid"
		case name == "type" && strings.Contains(ginPath, "/documents/"):
			p["enum"] = documentSlugs()
		case name == "type":
			p["enum"] = familyNames()
		}
		params = append(params, p)
	}
	return strings.Join(segments, "/"), params
}

func documentSlugs() []string {
	out := make([]string, 0, len(finance.AllDocumentTypes))
	for _, t := range finance.AllDocumentTypes {
		out = append(out, t.Slug())
	}
	return out
}

func familyNames() []string {
	return append(documentSlugs(), string(financeapp.FamilyExpenses), string(financeapp.FamilyRequests))
}

// queryParams documents a filter struct through its form tags
func queryParams(filter any) []map[string]any {
	if filter == nil {
		return nil
	}
	t := reflect.TypeOf(filter)
	out := make([]map[string]any, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		p := map[string]any{"name": name, "in": "query"}
		for k, v := range schemaFor(f.Type, nil) {
			p[k] = v
		}
		out = append(out, p)
	}
	return out
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	numberType  = reflect.TypeOf(financeapp.Number{})
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
)

// schemaFor maps a Go type to a JSON schema. Structs become definitions
// named after the type and are referenced by $ref.
func schemaFor(t reflect.Type, defs map[string]any) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case decimalType, numberType:
		return map[string]any{"type": "string", "format": "decimal"}
	case timeType:
		return map[string]any{"type": "string", "format": "date-time"}
	case uuidType:
		return map[string]any{"type": "string", "format": "uuid"}
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaFor(t.Elem(), defs)}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": schemaFor(t.Elem(), defs)}
	case reflect.Struct:
		if defs == nil {
			return map[string]any{"type": "object"}
		}
		name := t.Name()
		if _, seen := defs[name]; !seen {
			defs[name] = map[string]any{"type": "object"}
			defs[name] = structSchema(t, defs)
		}
		return map[string]any{"$ref": "#/definitions/" + name}
	}
	return map[string]any{}
}

func structSchema(t reflect.Type, defs map[string]any) map[string]any {
	props := map[string]any{}
	var required []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		props[name] = schemaFor(f.Type, defs)
		if strings.HasPrefix(f.Tag.Get("validate"), "required") {
			required = append(required, name)
		}
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// servedDoc is the swag.Swagger registered under swag.Name. swag allows one
// registration per name, so later engines only swap the document.
type servedDoc struct {
	doc atomic.Value
}

func (s *servedDoc) ReadDoc() string {
	if doc, ok := s.doc.Load().(string); ok {
		return doc
	}
	return "{}"
}

var (
	apiDoc         = &servedDoc{}
	registerAPIDoc sync.Once
)

// mountSwagger serves the document and the swagger UI under /swagger
func mountSwagger(engine *gin.Engine, doc []byte, guard gin.HandlerFunc) {
	apiDoc.doc.Store(string(doc))
	registerAPIDoc.Do(func() { swag.Register(swag.Name, apiDoc) })
	engine.GET("/swagger/*any", guard, ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
}
