package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const catalogIDKey contextKey = iota

// CatalogHeader selects the catalog on HTTP requests.
const CatalogHeader = "Sitebook-Catalog"

// getCatalogID extracts the catalog ID from context.
func getCatalogID(ctx context.Context) string {
	v, _ := ctx.Value(catalogIDKey).(string)
	return v
}

// catalogMiddleware picks the catalog from the Sitebook-Catalog header (HTTP)
// or _meta.catalog_id (stdio), falling back to defaultCatalog.
func catalogMiddleware(defaultCatalog string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var catalogID string

			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				catalogID = strings.TrimSpace(extra.Header.Get(CatalogHeader))
			}

			// Some notifications carry nil params behind a non-nil interface.
			if catalogID == "" {
				if params := req.GetParams(); params != nil {
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if id, ok := meta["catalog_id"].(string); ok {
								catalogID = strings.TrimSpace(id)
							}
						}
					}()
				}
			}

			if catalogID == "" {
				catalogID = defaultCatalog
			}
			ctx = context.WithValue(ctx, catalogIDKey, catalogID)
			return next(ctx, method, req)
		}
	}
}
