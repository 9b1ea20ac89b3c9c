package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/shopsphere/internal/domain/offer"
	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/geocoder89/shopsphere/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/orders", func(ctx *gin.Context) {
		var req order.PlaceRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"orderItems":[{"product":"p-1","qty":0}],"shippingAddress":{"address":"1 Main"}}`
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"orderItems[0].qty":          "required",
		"shippingAddress.city":       "required",
		"shippingAddress.postalCode": "required",
		"shippingAddress.country":    "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/offers/apply", func(ctx *gin.Context) {
		var req offer.ApplyRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	body := `{"code":"WELCOME10","itemsPrice":"ten"}`
	req := httptest.NewRequest(http.MethodPost, "/offers/apply", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "itemsPrice" {
		t.Fatalf("expected detail field to be itemsPrice, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "itemsPrice" {
		t.Fatalf("expected fields[0].field=itemsPrice, got %q", fieldErr.Field)
	}
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
	if fieldErr.Message == "" {
		t.Fatalf("expected non-empty fields[0].message")
	}
}

func TestBindJSON_ShopRules(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		newReq   func() any
		body     string
		wantCode int
		field    string
		rule     string
	}{
		{
			name:     "known order status",
			newReq:   func() any { return &order.UpdateStatusRequest{} },
			body:     `{"status":"shipped"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown order status",
			newReq:   func() any { return &order.UpdateStatusRequest{} },
			body:     `{"status":"lost"}`,
			wantCode: http.StatusBadRequest,
			field:    "status",
			rule:     "orderstatus",
		},
		{
			name:     "coupon code with dash",
			newReq:   func() any { return &offer.CreateRequest{} },
			body:     `{"title":"Spring","code":"spring-10","discountPercent":10}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "coupon code with spaces",
			newReq:   func() any { return &offer.CreateRequest{} },
			body:     `{"title":"Spring","code":"save 10%","discountPercent":10}`,
			wantCode: http.StatusBadRequest,
			field:    "code",
			rule:     "couponcode",
		},
		{
			name:     "coupon code update",
			newReq:   func() any { return &offer.UpdateRequest{} },
			body:     `{"code":"bad code"}`,
			wantCode: http.StatusBadRequest,
			field:    "code",
			rule:     "couponcode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/bind", func(ctx *gin.Context) {
				if !handlers.BindJSON(ctx, tt.newReq()) {
					return
				}
				ctx.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.field == "" {
				return
			}

			var resp bindErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal error response: %v", err)
			}
			for _, fe := range resp.Error.Details.Fields {
				if fe.Field == tt.field && fe.Rule == tt.rule && fe.Message != "" {
					return
				}
			}
			t.Fatalf("missing %s/%s field error: %+v", tt.field, tt.rule, resp.Error.Details.Fields)
		})
	}
}
