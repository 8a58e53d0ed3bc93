package audit

import "testing"

func TestExtractResourceType(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "plugin collection", path: "/plugins/", want: "plugin"},
		{name: "plugin by ID", path: "/plugins/abc-123/", want: "plugin"},
		{name: "seed collection", path: "/seeds/", want: "seed"},
		{name: "service by ID", path: "/services/svc-1/", want: "service"},
		{name: "env collection", path: "/env/", want: "env"},
		{name: "env by name", path: "/env/MY_VAR/", want: "env"},
		{name: "template by ID", path: "/templates/tmpl-1/", want: "template"},
		{name: "tab collection", path: "/templates/tmpl-1/tabs/", want: "tab"},
		{name: "tab by name", path: "/templates/tmpl-1/tabs/overview/", want: "tab"},
		{name: "empty for health", path: "/livez", want: ""},
		{name: "empty for root", path: "/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractResourceType(tt.path)
			if got != tt.want {
				t.Errorf("extractResourceType(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtractResourceIDs(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "plugin by ID", path: "/plugins/abc-123/", want: []string{"abc-123"}},
		{name: "service by ID", path: "/services/svc-1/", want: []string{"svc-1"}},
		{name: "template by ID", path: "/templates/tmpl-1/", want: []string{"tmpl-1"}},
		{name: "tab by name", path: "/templates/tmpl-1/tabs/overview/", want: []string{"tmpl-1", "overview"}},
		{name: "no IDs for collection", path: "/plugins/", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractResourceIDs(tt.path)
			if len(got) != len(tt.want) {
				t.Errorf("extractResourceIDs(%q) = %v, want %v", tt.path, got, tt.want)
				return
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("extractResourceIDs(%q)[%d] = %q, want %q", tt.path, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractActionVerb(t *testing.T) {
	tests := []struct {
		name   string
		method string
		want   string
	}{
		{name: "create", method: "POST", want: "create"},
		{name: "update", method: "PUT", want: "update"},
		{name: "patch", method: "PATCH", want: "patch"},
		{name: "delete", method: "DELETE", want: "delete"},
		{name: "fallback", method: "HEAD", want: "head"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractActionVerb(tt.method)
			if got != tt.want {
				t.Errorf("extractActionVerb(%q) = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestIsAuditableEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{name: "POST plugins", method: "POST", path: "/plugins/", want: true},
		{name: "DELETE seed", method: "DELETE", path: "/seeds/abc/", want: true},
		{name: "PUT env", method: "PUT", path: "/env/MY_VAR/", want: true},
		{name: "PATCH unused but mutating", method: "PATCH", path: "/templates/1/", want: true},
		{name: "GET browse not audited", method: "GET", path: "/plugins/", want: false},
		{name: "GET health not audited", method: "GET", path: "/livez", want: false},
		{name: "GET readyz not audited", method: "GET", path: "/readyz", want: false},
		{name: "POST health not audited", method: "POST", path: "/healthz", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAuditableEndpoint(tt.method, tt.path)
			if got != tt.want {
				t.Errorf("isAuditableEndpoint(%q, %q) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}
