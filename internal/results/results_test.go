package results

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile() *File {
	return &File{
		N: 16, K: 11,
		Rows: []Row{
			{SNR: 1, Point: Point{Trials: 1000, BitErrors: 120, BlockErrors: 40, Erasures: 0, MLTrials: 1000, MLErrors: 3}},
			{SNR: 2.5, Point: Point{Trials: 2000, BitErrors: 33, BlockErrors: 10, Erasures: 2}},
		},
	}
}

func TestWriteFormat(t *testing.T) {
	var b bytes.Buffer
	_, err := sampleFile().WriteTo(&b)
	require.NoError(t, err)
	want := `code_n 16
code_k 11

SNR { 1 2.5 }
tr_num { 1000 2000 }
en_bit { 120 33 }
en_bl { 40 10 }
er_n { 0 2 }
WER { 4.000e-02 5.000e-03 }
ERR { 0.000e+00 1.000e-03 }
ml_tr_num { 1000 0 }
enml_bl { 3 0 }
MLER { 3.000e-03 0.000e+00 }

% SNR   BER         WER         ERR         ML LB
% 1.00  1.091e-02  4.000e-02  0.000e+00  3.000e-03
% 2.50  1.500e-03  5.000e-03  1.000e-03  0.000e+00
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundTrip(t *testing.T) {
	var b bytes.Buffer
	in := sampleFile()
	_, err := in.WriteTo(&b)
	require.NoError(t, err)
	out, err := Parse(b.String(), "")
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("SNR { 1 2 }\ntr_num { 5 }\n", "")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = Parse("SNR { 1 x }\n", "")
	assert.ErrorIs(t, err, ErrInvalid)

	f, err := Parse("code_n 8\n", "")
	require.NoError(t, err)
	assert.Empty(t, f.Rows)
}

func TestMerge(t *testing.T) {
	f := sampleFile()
	f.Merge(2.5, Point{Trials: 10, BlockErrors: 1})
	f.Merge(0.5, Point{Trials: 7})
	f.Merge(3, Point{Trials: 8})
	f.Merge(1.5, Point{Trials: 9})

	snrs := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		snrs[i] = r.SNR
	}
	assert.Equal(t, []float64{0.5, 1, 1.5, 2.5, 3}, snrs)
	assert.Equal(t, int64(2010), f.Rows[3].Trials)
	assert.Equal(t, int64(11), f.Rows[3].BlockErrors)
	assert.Equal(t, int64(9), f.Rows[2].Trials)
}

func TestPointArithmetic(t *testing.T) {
	a := Point{Trials: 10, BitErrors: 4, BlockErrors: 2, Erasures: 1, MLTrials: 9, MLErrors: 1}
	b := Point{Trials: 3, BitErrors: 1, BlockErrors: 1}
	assert.Equal(t, a, a.Add(b).Sub(b))
	assert.Equal(t, 0.0, Point{}.WER())
	assert.InDelta(t, 0.1, a.BER(4), 1e-12)
}

func TestStoreSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "res.txt")
	s := NewStore(path)

	_, err := s.Save(16, 11, []Row{
		{SNR: 2, Point: Point{Trials: 100, BlockErrors: 5}},
		{SNR: 3},
	})
	require.NoError(t, err)
	_, err = os.Stat(path + ".bsy")
	assert.ErrorIs(t, err, os.ErrNotExist)

	f, err := s.Save(16, 11, []Row{
		{SNR: 2, Point: Point{Trials: 50, BlockErrors: 1}},
		{SNR: 1, Point: Point{Trials: 10, BlockErrors: 4}},
	})
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, f, got)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, 1.0, got.Rows[0].SNR)
	assert.Equal(t, int64(150), got.Rows[1].Trials)
	assert.Equal(t, int64(6), got.Rows[1].BlockErrors)
}

func TestStoreBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "res.txt")
	require.NoError(t, os.WriteFile(path+".bsy", []byte("Busy"), 0o644))
	s := &Store{Path: path, BusyWait: 30 * time.Millisecond, BusyPoll: 10 * time.Millisecond}

	_, err := s.Save(8, 4, []Row{{SNR: 1, Point: Point{Trials: 1}}})
	assert.ErrorIs(t, err, ErrBusy)

	go func() {
		time.Sleep(20 * time.Millisecond)
		os.Remove(path + ".bsy")
	}()
	s.BusyWait = 5 * time.Second
	_, err = s.Save(8, 4, []Row{{SNR: 1, Point: Point{Trials: 1}}})
	require.NoError(t, err)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "none.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteJSON(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, sampleFile().WriteJSON(&b))

	var got struct {
		N      int `json:"code_n"`
		K      int `json:"code_k"`
		Points []struct {
			SNR    float64 `json:"snr"`
			Trials int64   `json:"tr_num"`
			WER    float64 `json:"wer"`
			MLER   float64 `json:"mler"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(b.Bytes(), &got), b.String())
	assert.Equal(t, 16, got.N)
	require.Len(t, got.Points, 2)
	assert.Equal(t, 2.5, got.Points[1].SNR)
	assert.Equal(t, int64(2000), got.Points[1].Trials)
	assert.InDelta(t, 0.04, got.Points[0].WER, 1e-12)
	assert.InDelta(t, 0.003, got.Points[0].MLER, 1e-12)
	assert.False(t, strings.Contains(b.String(), "NaN"))
}
