package decoder

import (
	"errors"
	"fmt"
	"qrmanager/internal/models"
	"qrmanager/internal/scanner/interfaces"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXingDecoder finds every QR symbol in a frame. Readers are created per
// call, so one decoder can be shared by all workers.
type ZXingDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder() interfaces.DecoderInterface {
	return &ZXingDecoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *ZXingDecoder) Decode(frame *models.Frame) ([]string, error) {
	if frame == nil || frame.Image == nil {
		return nil, errors.New("empty frame")
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	results, err := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, d.hints)
	if err == nil && len(results) > 0 {
		texts := make([]string, 0, len(results))
		for _, r := range results {
			texts = append(texts, r.GetText())
		}
		return texts, nil
	}
	if err != nil && !isUnreadable(err) {
		return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	// the multi detector misses some symbols the single one finds
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		if isUnreadable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	return []string{result.GetText()}, nil
}

// isUnreadable reports a frame without a decodable symbol: nothing was
// found, or what was found failed format or checksum checks.
func isUnreadable(err error) bool {
	var re gozxing.ReaderException
	return errors.As(err, &re)
}
