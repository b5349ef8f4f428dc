// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Pumpkin-cod/Task-Manager/internal/middleware"
	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeUnauthorized:
		return http.StatusForbidden
	case model.ErrCodeTaskNotFound, model.ErrCodeTeamNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requirePrincipal はコンテキストから主体を取り出す。
// 存在しない場合は401を書き込み、falseを返す。
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError("no principal in request"))
		return nil, false
	}
	return p, true
}

// readJSONObject はボディを読み取り、JSONオブジェクトであることを確認して返す。
func readJSONObject(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, model.NewInvalidRequestError("failed to read request body: " + err.Error())
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		return nil, model.NewInvalidRequestError("request body must be a JSON object")
	}
	return body, nil
}

// decodeJSON はJSONオブジェクトのボディをvにデコードする。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readJSONObject(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return model.NewInvalidRequestError("invalid request body: " + err.Error())
	}
	return nil
}

// idResponse は削除系エンドポイントのレスポンス。
type idResponse struct {
	ID string `json:"id"`
}
