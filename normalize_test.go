package pipetemplar

import "testing"

func TestNormalizeArgs_Maps(t *testing.T) {
	in := map[any]any{
		"name": "paul",
		1:      "one",
		"user": map[any]any{"role": "admin"},
		"list": []any{map[any]any{"k": "v"}},
	}
	out, err := NormalizeArgs(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out["name"] != "paul" || out["1"] != "one" {
		t.Fatalf("keys not normalized: %#v", out)
	}
	if u, ok := out["user"].(map[string]any); !ok || u["role"] != "admin" {
		t.Fatalf("nested map => %#v", out["user"])
	}
	if l, ok := out["list"].([]any); !ok || l[0].(map[string]any)["k"] != "v" {
		t.Fatalf("nested list => %#v", out["list"])
	}

	s, err := NormalizeArgs(map[string]string{"a": "b"})
	if err != nil || s["a"] != "b" {
		t.Fatalf("map[string]string => %#v, %v", s, err)
	}

	ints, err := NormalizeArgs(map[string]int{"n": 2})
	if err != nil || ints["n"] != 2 {
		t.Fatalf("map[string]int => %#v, %v", ints, err)
	}

	empty, err := NormalizeArgs(nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("nil => %#v, %v", empty, err)
	}
}

func TestNormalizeArgs_JSONAndStructs(t *testing.T) {
	out, err := NormalizeArgs(`{"n": 1, "name": "paul"}`)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if got, err := Once("%{name}: %{n} item%{n|s}", out); err != nil || got != "paul: 1 item" {
		t.Fatalf("render => %q, %v", got, err)
	}

	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	out, err = NormalizeArgs(user{Name: "paul", Age: 40})
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if out["name"] != "paul" || out["age"] != 40.0 {
		t.Fatalf("struct => %#v", out)
	}

	if _, err := NormalizeArgs("[1, 2]"); err == nil {
		t.Fatalf("json array must fail")
	}
	if _, err := ArgsFromJSON([]byte("null")); err == nil {
		t.Fatalf("json null must fail")
	}
}

func TestNormalizeArgs_KeepsInput(t *testing.T) {
	nested := map[any]any{"role": "admin"}
	list := []any{map[any]any{"k": "v"}}
	in := map[string]any{"user": nested, "list": list}

	out, err := NormalizeArgs(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, ok := in["user"].(map[any]any); !ok {
		t.Fatalf("input map rewritten: %#v", in["user"])
	}
	if _, ok := list[0].(map[any]any); !ok {
		t.Fatalf("input list rewritten: %#v", list[0])
	}
	if u, ok := out["user"].(map[string]any); !ok || u["role"] != "admin" {
		t.Fatalf("nested map => %#v", out["user"])
	}

	out["extra"] = 1
	if _, ok := in["extra"]; ok {
		t.Fatalf("result shares storage with input")
	}
}
