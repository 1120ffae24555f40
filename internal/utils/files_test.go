package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadSubdir(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"audio/mpeg", AudioDir, false},
		{"audio/wav", AudioDir, false},
		{"image/png", ImagesDir, false},
		{"image/jpeg", ImagesDir, false},
		{"text/csv", DocumentDir, false},
		{"application/csv", DocumentDir, false},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", DocumentDir, false},
		{"application/pdf", "", true},
		{"video/mp4", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := UploadSubdir(tc.contentType)
		if tc.wantErr {
			if err == nil {
				t.Errorf("UploadSubdir(%q) = %q, want error", tc.contentType, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("UploadSubdir(%q): %v", tc.contentType, err)
			continue
		}
		if got != tc.want {
			t.Errorf("UploadSubdir(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}
}

func TestGenerateUniqueFilename(t *testing.T) {
	a := GenerateUniqueFilename("Recording.MP3")
	b := GenerateUniqueFilename("Recording.MP3")
	if a == b {
		t.Error("two generated names collide")
	}
	if !strings.HasSuffix(a, ".mp3") {
		t.Errorf("extension not kept lowercase: %q", a)
	}
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := DeleteFile(path)
	if err != nil || !removed {
		t.Fatalf("DeleteFile existing = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = DeleteFile(path)
	if err != nil || removed {
		t.Fatalf("DeleteFile missing = (%v, %v), want (false, nil)", removed, err)
	}
}
