package persistence

import "gorm.io/gorm"

// stampSeq numbers new rows after the table's current maximum so that
// listings come back in insertion order, whatever the rows' created dates.
// Concurrent writers may draw the same number; FindAll breaks ties by id.
func stampSeq(tx *gorm.DB, table any, seqs ...*int64) error {
	var last int64
	if err := tx.Model(table).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
		return err
	}
	for i, seq := range seqs {
		*seq = last + int64(i) + 1
	}
	return nil
}
