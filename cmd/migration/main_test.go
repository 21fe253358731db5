package main

import "testing"

func TestDatabaseURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "postgres", raw: "postgres://u:p@localhost:5432/pyramid_league?sslmode=disable", want: "postgres://u:p@localhost:5432/pyramid_league?sslmode=disable"},
		{name: "alias", raw: "pg://u:p@localhost/pyramid_league", want: "postgres://u:p@localhost/pyramid_league"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "mysql", raw: "mysql://u:p@localhost/db", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := databaseURL(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got=%q want=%q", got, tc.want)
			}
		})
	}
}
