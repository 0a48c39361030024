package http

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/reports":          "/api/reports",
		"/api/reports/550e8400-e29b-41d4-a716-446655440000":                "/api/reports/:id",
		"/api/reports/550e8400-e29b-41d4-a716-446655440000/photos/123":     "/api/reports/:id/photos/:id",
		"/api/admin/reports/550e8400-e29b-41d4-a716-446655440000/audit":    "/api/admin/reports/:id/audit",
		"/auth/refresh": "/auth/refresh",
	}

	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
