package db

import "testing"

func TestSavepointNameValidation(t *testing.T) {
	valid := []string{"bulk_0", "sp1", "item_42", "A_b_C"}
	for _, name := range valid {
		if !savepointName.MatchString(name) {
			t.Errorf("%q should be a valid savepoint name", name)
		}
	}

	invalid := []string{"", "bulk-0", "sp 1", "x;DROP TABLE claims", `a"b`}
	for _, name := range invalid {
		if savepointName.MatchString(name) {
			t.Errorf("%q should be rejected as a savepoint name", name)
		}
	}
}
