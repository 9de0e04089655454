package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appissue "github.com/wms/backend/internal/application/issue"
	"github.com/wms/backend/internal/infrastructure/persistence/memory"
	"github.com/wms/backend/internal/interfaces/http/middleware"
	"github.com/wms/backend/internal/interfaces/http/router"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	repo := memory.NewGoodsIssueRepository("GI")
	service := appissue.NewGoodsIssueService(repo, zap.NewNop())

	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewGoodsIssueHandler(service))
	r.Setup()

	engine.GET("/healthz", NewHealthHandler("wms-backend-test").Healthz)

	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func createIssuePayload() map[string]any {
	return map[string]any{
		"issue_type":     "Transfer",
		"partner_name":   "Acme Corp",
		"from_warehouse": "WH01",
		"expected_date":  "2024-03-01T00:00:00Z",
		"created_by":     "tester",
		"lines": []map[string]any{{
			"sku":           "A1",
			"product_name":  "Widget",
			"uom":           "PCS",
			"planned_qty":   "3",
			"tracking_type": "SERIAL",
		}},
	}
}

type issuePayload struct {
	IssueNumber string `json:"issue_number"`
	Status      string `json:"status"`
	Lines       []struct {
		ID        string   `json:"id"`
		PickedQty string   `json:"picked_qty"`
		Serials   []string `json:"serials"`
	} `json:"lines"`
	StatusHistory []struct {
		Status    string `json:"status"`
		ChangedBy string `json:"changed_by"`
	} `json:"status_history"`
}

func createIssue(t *testing.T, engine *gin.Engine) issuePayload {
	t.Helper()
	w := doRequest(t, engine, http.MethodPost, "/api/v1/issues", createIssuePayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := parseResponse(t, w)
	require.True(t, resp.Success)

	var doc issuePayload
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	return doc
}

func TestGoodsIssueHandler_Create(t *testing.T) {
	engine := setupTestServer(t)

	doc := createIssue(t, engine)
	assert.Regexp(t, `^GI-\d{4}-001$`, doc.IssueNumber)
	assert.Equal(t, "DRAFT", doc.Status)
	require.Len(t, doc.Lines, 1)

	t.Run("rejects missing required fields", func(t *testing.T) {
		payload := createIssuePayload()
		delete(payload, "from_warehouse")
		w := doRequest(t, engine, http.MethodPost, "/api/v1/issues", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})

	t.Run("rejects empty line list", func(t *testing.T) {
		payload := createIssuePayload()
		payload["lines"] = []map[string]any{}
		w := doRequest(t, engine, http.MethodPost, "/api/v1/issues", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGoodsIssueHandler_GetAndList(t *testing.T) {
	engine := setupTestServer(t)
	doc := createIssue(t, engine)

	t.Run("get by number", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodGet, "/api/v1/issues/"+doc.IssueNumber, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var fetched issuePayload
		resp := parseResponse(t, w)
		require.NoError(t, json.Unmarshal(resp.Data, &fetched))
		assert.Equal(t, doc.IssueNumber, fetched.IssueNumber)
	})

	t.Run("unknown number returns 404", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodGet, "/api/v1/issues/GI-1999-999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_NOT_FOUND", resp.Error.Code)
	})

	t.Run("list with meta", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodGet, "/api/v1/issues?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
		assert.Equal(t, 10, resp.Meta.PageSize)
	})

	t.Run("list rejects unknown status filter", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodGet, "/api/v1/issues?status=SHIPPED", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status summary", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodGet, "/api/v1/issues/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var summary struct {
			Draft int64 `json:"draft"`
			Total int64 `json:"total"`
		}
		resp := parseResponse(t, w)
		require.NoError(t, json.Unmarshal(resp.Data, &summary))
		assert.Equal(t, int64(1), summary.Draft)
		assert.Equal(t, int64(1), summary.Total)
	})
}

func TestGoodsIssueHandler_Transition(t *testing.T) {
	engine := setupTestServer(t)
	doc := createIssue(t, engine)
	path := "/api/v1/issues/" + doc.IssueNumber + "/transitions"

	w := doRequest(t, engine, http.MethodPost, path, map[string]any{
		"target_status": "PICKING",
		"actor":         "alice",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated issuePayload
	resp := parseResponse(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, "PICKING", updated.Status)
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, "alice", updated.StatusHistory[1].ChangedBy)

	t.Run("illegal transition returns 422", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPost, path, map[string]any{
			"target_status": "COMPLETED",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_ILLEGAL_TRANSITION", resp.Error.Code)
	})

	t.Run("unknown target returns 400", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPost, path, map[string]any{
			"target_status": "SHIPPED",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGoodsIssueHandler_SerialLifecycle(t *testing.T) {
	engine := setupTestServer(t)
	doc := createIssue(t, engine)

	w := doRequest(t, engine, http.MethodPost, "/api/v1/issues/"+doc.IssueNumber+"/transitions",
		map[string]any{"target_status": "PICKING"})
	require.Equal(t, http.StatusOK, w.Code)

	lineID := doc.Lines[0].ID
	serialPath := fmt.Sprintf("/api/v1/issues/%s/lines/%s/serials", doc.IssueNumber, lineID)

	for _, sn := range []string{"SN-1", "SN-2", "SN-3"} {
		w := doRequest(t, engine, http.MethodPost, serialPath, map[string]any{"serial": sn})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	t.Run("fourth serial exceeds the plan", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPost, serialPath, map[string]any{"serial": "SN-4"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_PICK_LIMIT_EXCEEDED", resp.Error.Code)
	})

	t.Run("duplicate serial returns 422", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodDelete, serialPath+"/SN-3", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, engine, http.MethodPost, serialPath, map[string]any{"serial": "SN-2"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_DUPLICATE_SERIAL", resp.Error.Code)
	})

	t.Run("malformed line id returns 400", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPost,
			"/api/v1/issues/"+doc.IssueNumber+"/lines/not-a-uuid/serials",
			map[string]any{"serial": "SN-9"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGoodsIssueHandler_LotAllocations(t *testing.T) {
	engine := setupTestServer(t)

	payload := createIssuePayload()
	payload["lines"] = []map[string]any{{
		"sku":           "A1",
		"product_name":  "Widget",
		"uom":           "PCS",
		"planned_qty":   "50",
		"tracking_type": "LOT",
	}}
	w := doRequest(t, engine, http.MethodPost, "/api/v1/issues", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var doc issuePayload
	resp := parseResponse(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, &doc))

	w = doRequest(t, engine, http.MethodPost, "/api/v1/issues/"+doc.IssueNumber+"/transitions",
		map[string]any{"target_status": "PICKING"})
	require.Equal(t, http.StatusOK, w.Code)

	lotPath := fmt.Sprintf("/api/v1/issues/%s/lines/%s/lots", doc.IssueNumber, doc.Lines[0].ID)

	w = doRequest(t, engine, http.MethodPut, lotPath+"/LOT-A", map[string]any{"quantity": "30"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("over-allocation returns 422", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPut, lotPath+"/LOT-B", map[string]any{"quantity": "25"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("allocation within remaining plan succeeds", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPut, lotPath+"/LOT-B", map[string]any{"quantity": "20"})
		require.Equal(t, http.StatusOK, w.Code)

		var updated issuePayload
		resp := parseResponse(t, w)
		require.NoError(t, json.Unmarshal(resp.Data, &updated))
		assert.Equal(t, "50", updated.Lines[0].PickedQty)
	})

	t.Run("remove allocation", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodDelete, lotPath+"/LOT-A", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var updated issuePayload
		resp := parseResponse(t, w)
		require.NoError(t, json.Unmarshal(resp.Data, &updated))
		assert.Equal(t, "20", updated.Lines[0].PickedQty)
	})
}

func TestGoodsIssueHandler_Update(t *testing.T) {
	engine := setupTestServer(t)
	doc := createIssue(t, engine)

	payload := map[string]any{
		"issue_type":     "Disposal",
		"from_warehouse": "WH02",
		"expected_date":  "2024-04-01T00:00:00Z",
		"lines": []map[string]any{{
			"sku":           "B2",
			"product_name":  "Gadget",
			"uom":           "BOX",
			"planned_qty":   "5",
			"tracking_type": "NONE",
		}},
	}
	w := doRequest(t, engine, http.MethodPut, "/api/v1/issues/"+doc.IssueNumber, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("rejected outside draft", func(t *testing.T) {
		w := doRequest(t, engine, http.MethodPost, "/api/v1/issues/"+doc.IssueNumber+"/transitions",
			map[string]any{"target_status": "PICKING"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, engine, http.MethodPut, "/api/v1/issues/"+doc.IssueNumber, payload)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp := parseResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_INVALID_STATE", resp.Error.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	engine := setupTestServer(t)

	w := doRequest(t, engine, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "wms-backend-test", body.Service)
}
