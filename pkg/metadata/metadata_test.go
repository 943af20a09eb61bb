package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCalculateHash(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := CalculateHash([]byte("abc")); got != want {
		t.Errorf("CalculateHash = %s, want %s", got, want)
	}
}

func TestSignAndVerify(t *testing.T) {
	content := []byte("Name,Grade\nAsha,10\n")

	m := Sign(content, Manifest{RunID: "run-1", Rows: 1})
	if m.Version != Version || m.Hash == "" || m.GeneratedAt.IsZero() {
		t.Fatalf("Sign returned incomplete manifest: %+v", m)
	}

	if err := Verify(content, &m); err != nil {
		t.Errorf("Verify returned unexpected error: %v", err)
	}

	if err := Verify([]byte("Name,Grade\nAsha,9\n"), &m); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Verify(tampered) = %v, want ErrHashMismatch", err)
	}

	if err := Verify(content, &Manifest{}); !errors.Is(err, ErrNoHashFound) {
		t.Errorf("Verify(no hash) = %v, want ErrNoHashFound", err)
	}

	if err := Verify(content, nil); !errors.Is(err, ErrNoManifest) {
		t.Errorf("Verify(nil) = %v, want ErrNoManifest", err)
	}
}

func TestSignFileAndVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graded.csv")
	if err := os.WriteFile(path, []byte("Grade\n10\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := VerifyFile(path); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("VerifyFile before signing = %v, want ErrNoManifest", err)
	}

	signed, err := SignFile(path, Manifest{RunID: "run-2", Rows: 1, Grades: map[int]int{10: 1}})
	if err != nil {
		t.Fatalf("SignFile failed: %v", err)
	}

	m, err := VerifyFile(path)
	if err != nil {
		t.Fatalf("VerifyFile failed: %v", err)
	}

	if m.RunID != "run-2" || m.Hash != signed.Hash || m.Grades[10] != 1 {
		t.Errorf("loaded manifest = %+v, want %+v", m, signed)
	}

	if err := os.WriteFile(path, []byte("Grade\n9\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := VerifyFile(path); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("VerifyFile after edit = %v, want ErrHashMismatch", err)
	}
}
