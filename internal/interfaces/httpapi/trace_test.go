package httpapi

import "testing"

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{name: "httpapi.Handler.OpenSession", want: true},
		{name: "httpapi.Handler.GetClock", want: true},
		{name: "httpapi.Handler.ConfirmSubstitutionBatch", want: true},
		{name: "httpapi.writeJSON", want: false},
		{name: "httpapi.mapError", want: false},
		{name: "httpapi.CORS", want: false},
		{name: "usecase.Session.Snapshot", want: false},
	}

	for _, tc := range cases {
		if got := shouldCreateHTTPAPISpan(tc.name); got != tc.want {
			t.Errorf("shouldCreateHTTPAPISpan(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
