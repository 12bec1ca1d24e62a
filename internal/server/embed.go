package server

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// 管理APIのOpenAPIドキュメント
//
//go:embed api/openapi.yaml
var openAPISpec []byte

// loadOpenAPI は埋め込みのOpenAPIドキュメントを読み込み検証する
func loadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("OpenAPIドキュメントの解析に失敗: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("OpenAPIドキュメントの検証に失敗: %w", err)
	}
	return doc, nil
}
