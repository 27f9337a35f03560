package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/api/auth/login":               "/api/auth/login",
		"/api/admin/users/abc":          "/api/admin/users/:id",
		"/api/admin/users/abc/role":     "/api/admin/users/:id/role",
		"/api/documents/d1/permissions": "/api/documents/:id/permissions",
		"/api/documents/d1/access":      "/api/documents/:id/access",
		"/api/query?limit=10":           "/api/query",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
