package models

import "testing"

func TestDerivedStatus(t *testing.T) {
	cases := []struct {
		name string
		post Post
		want string
	}{
		{"live id wins", Post{Status: PostStatusNew, InstagramPostID: "ig1"}, PostStatusPublished},
		{"stored status passes through", Post{Status: PostStatusScheduled}, PostStatusScheduled},
		{"stale published without id falls back", Post{Status: PostStatusPublished}, PostStatusNew},
		{"new stays new", Post{Status: PostStatusNew}, PostStatusNew},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.post.DerivedStatus(); got != tc.want {
				t.Fatalf("DerivedStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSchedulingPosition(t *testing.T) {
	pos := 7
	if got := (&Post{Position: &pos}).SchedulingPosition(); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := (&Post{}).SchedulingPosition(); got != -1 {
		t.Fatalf("unpositioned post should rank as -1, got %d", got)
	}
}
