package results

import (
	"io"

	"github.com/francoispqt/gojay"
)

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (f *File) MarshalJSONObject(enc *gojay.Encoder) {
	enc.IntKey(keyN, f.N)
	enc.IntKey(keyK, f.K)
	enc.ArrayKey("points", jsonRows{rows: f.Rows, k: f.K})
}

func (f *File) IsNil() bool { return f == nil }

type jsonRows struct {
	rows []Row
	k    int
}

func (r jsonRows) MarshalJSONArray(enc *gojay.Encoder) {
	for _, row := range r.rows {
		enc.Object(jsonRow{Row: row, k: r.k})
	}
}

func (r jsonRows) IsNil() bool { return r.rows == nil }

type jsonRow struct {
	Row
	k int
}

func (r jsonRow) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Float64Key("snr", r.SNR)
	enc.Int64Key(keyTrials, r.Trials)
	enc.Int64Key(keyBitErr, r.BitErrors)
	enc.Int64Key(keyBlockErr, r.BlockErrors)
	enc.Int64Key(keyErasures, r.Erasures)
	enc.Int64Key(keyMLTrials, r.MLTrials)
	enc.Int64Key(keyMLErr, r.MLErrors)
	enc.Float64Key("ber", r.BER(r.k))
	enc.Float64Key("wer", r.WER())
	enc.Float64Key("err", r.ERR())
	enc.Float64Key("mler", r.MLER())
}

func (r jsonRow) IsNil() bool { return false }

// WriteJSON writes f as one JSON object.
func (f *File) WriteJSON(w io.Writer) error {
	enc := gojay.BorrowEncoder(w)
	defer enc.Release()
	return enc.EncodeObject(f)
}
