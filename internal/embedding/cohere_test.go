package embedding

import "testing"

func TestToFloat32(t *testing.T) {
	out, err := toFloat32([][]float64{{0.5, -1}, {2}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if out[0][0] != 0.5 || out[0][1] != -1 || out[1][0] != 2 {
		t.Errorf("out = %v", out)
	}
	if _, err := toFloat32([][]float64{{1}}, 2); err == nil {
		t.Error("expected count mismatch error")
	}
}

func TestNewCohereEmbedder_RequiresKey(t *testing.T) {
	if _, err := NewCohereEmbedder("", "embed-multilingual-v3.0", 1024); err == nil {
		t.Error("expected error without API key")
	}
}
