package utils

import (
	"reflect"
	"testing"
)

func TestSplitKeyValues(t *testing.T) {
	got := SplitKeyValues([]string{"Authorization: Bearer a:b", "no-colon", " : empty", "X-Market:1001"})
	expect := map[string]string{"Authorization": "Bearer a:b", "X-Market": "1001"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("unexpected headers.\nwant: %#v\ngot:  %#v", expect, got)
	}
}
