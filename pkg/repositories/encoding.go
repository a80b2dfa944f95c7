package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/repositories/models"
	"github.com/klauspost/compress/zstd"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// encodeSave marshals save to JSON and compresses it for storage.
func encodeSave(save *models.SaveGame) ([]byte, error) {
	b, err := json.Marshal(save)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save: %v", err)
	}
	return encoder.EncodeAll(b, nil), nil
}

func decodeSave(data []byte) (*models.SaveGame, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress save: %v", err)
	}
	save := &models.SaveGame{}
	if err := json.Unmarshal(b, save); err != nil {
		return nil, fmt.Errorf("failed to unmarshal save: %v", err)
	}
	return save, nil
}
