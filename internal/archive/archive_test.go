package archive

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		prefix string
		path   string
		want   string
	}{
		{prefix: "reimbursements", path: "/out/Reimbursement_JOHN DOE SMITH_03.01-24.24.xlsx", want: "reimbursements/2024/Reimbursement_JOHN DOE SMITH_03.01-24.24.xlsx"},
		{prefix: "/a/b/", path: "x.xlsx", want: "a/b/2024/x.xlsx"},
		{prefix: "", path: "dir/x.xlsx", want: "2024/x.xlsx"},
	}
	for _, tc := range cases {
		if got := ObjectName(tc.prefix, tc.path, at); got != tc.want {
			t.Fatalf("ObjectName(%q, %q)=%q want %q", tc.prefix, tc.path, got, tc.want)
		}
	}
}
