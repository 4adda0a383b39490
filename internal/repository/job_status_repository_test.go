package repository

import (
	"strings"
	"testing"
)

// The status catalogue is presented in insertion order so the seeded
// workflow sequence reads naturally; alphabetical ordering would shuffle
// it. The repository queries run only against MySQL, so the guard here is
// on the statement itself.
func TestJobStatusListOrdersByID(t *testing.T) {
	if !strings.HasSuffix(jobStatusListQuery, "ORDER BY id") {
		t.Fatalf("status list must order by id, got %q", jobStatusListQuery)
	}
}
