package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/trinitychain/trinitychain/internal/log"
	"github.com/trinitychain/trinitychain/internal/utxo"
	"github.com/trinitychain/trinitychain/pkg/block"
	"github.com/trinitychain/trinitychain/pkg/chainerr"
	"github.com/trinitychain/trinitychain/pkg/geometry"
	"github.com/trinitychain/trinitychain/pkg/tx"
	"github.com/trinitychain/trinitychain/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	height                  INTEGER PRIMARY KEY,
	block_hash              TEXT NOT NULL,
	previous_hash           TEXT NOT NULL,
	timestamp               INTEGER NOT NULL,
	difficulty              INTEGER NOT NULL,
	nonce                   INTEGER NOT NULL,
	merkle_root             TEXT NOT NULL,
	serialized_transactions BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS utxo_set (
	utxo_hash           TEXT PRIMARY KEY,
	serialized_triangle BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const difficultyKey = "difficulty"

// SQLiteStore persists the chain to a single SQLite database file
// using the pure-Go modernc.org/sqlite driver, so the binary stays
// fully self-contained with no cgo dependency.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if absent) the database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, chainerr.NewDatabaseError(err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, chainerr.NewDatabaseError(err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBlockchainState writes blk, the full UTXO set, and difficulty in
// a single transaction. Any failure rolls back and surfaces as a
// chainerr.DatabaseError.
func (s *SQLiteStore) SaveBlockchainState(blk *block.Block, state *utxo.Store, difficulty uint32) error {
	txBytes, err := json.Marshal(blk.Transactions)
	if err != nil {
		return chainerr.NewSerializationError(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return chainerr.NewDatabaseError(err)
	}
	defer tx.Rollback()

	h := blk.Header
	_, err = tx.Exec(
		`INSERT INTO blocks (height, block_hash, previous_hash, timestamp, difficulty, nonce, merkle_root, serialized_transactions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(height) DO UPDATE SET
			block_hash=excluded.block_hash, previous_hash=excluded.previous_hash,
			timestamp=excluded.timestamp, difficulty=excluded.difficulty,
			nonce=excluded.nonce, merkle_root=excluded.merkle_root,
			serialized_transactions=excluded.serialized_transactions`,
		h.Height, blk.Hash().String(), h.PreviousHash.String(), h.TimestampMs, h.Difficulty, h.Nonce, h.MerkleRoot.String(), txBytes,
	)
	if err != nil {
		return chainerr.NewDatabaseError(err)
	}

	if _, err := tx.Exec(`DELETE FROM utxo_set`); err != nil {
		return chainerr.NewDatabaseError(err)
	}
	for hash, triangle := range state.Snapshot() {
		triBytes, err := json.Marshal(triangle)
		if err != nil {
			return chainerr.NewSerializationError(err)
		}
		if _, err := tx.Exec(
			`INSERT INTO utxo_set (utxo_hash, serialized_triangle) VALUES (?, ?)`,
			hash.String(), triBytes,
		); err != nil {
			return chainerr.NewDatabaseError(err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		difficultyKey, fmt.Sprintf("%d", difficulty),
	); err != nil {
		return chainerr.NewDatabaseError(err)
	}

	if err := tx.Commit(); err != nil {
		return chainerr.NewDatabaseError(err)
	}
	return nil
}

// LoadBlockchain reads every block ordered by height, the full UTXO
// set, and the difficulty metadata row. A disagreement between the
// metadata row and the last block header's difficulty is logged and
// resolved in favor of the block header.
func (s *SQLiteStore) LoadBlockchain() (*LoadedChain, error) {
	rows, err := s.db.Query(
		`SELECT height, serialized_transactions, previous_hash, timestamp, difficulty, nonce, merkle_root
		 FROM blocks ORDER BY height ASC`,
	)
	if err != nil {
		return nil, chainerr.NewDatabaseError(err)
	}
	defer rows.Close()

	var blocks []*block.Block
	var lastDifficulty uint32
	for rows.Next() {
		var height uint64
		var txBytes []byte
		var prevHashHex, merkleHex string
		var timestamp uint64
		var difficulty uint32
		var nonce uint64
		if err := rows.Scan(&height, &txBytes, &prevHashHex, &timestamp, &difficulty, &nonce, &merkleHex); err != nil {
			return nil, chainerr.NewDatabaseError(err)
		}

		var txs []*tx.Transaction
		if err := json.Unmarshal(txBytes, &txs); err != nil {
			return nil, chainerr.NewSerializationError(err)
		}

		prevHash, err := types.HexToHash(prevHashHex)
		if err != nil {
			return nil, chainerr.NewSerializationError(err)
		}
		merkleRoot, err := types.HexToHash(merkleHex)
		if err != nil {
			return nil, chainerr.NewSerializationError(err)
		}

		blk := &block.Block{
			Header: &block.Header{
				Height:       height,
				TimestampMs:  timestamp,
				PreviousHash: prevHash,
				MerkleRoot:   merkleRoot,
				Difficulty:   difficulty,
				Nonce:        nonce,
			},
			Transactions: txs,
		}
		blocks = append(blocks, blk)
		lastDifficulty = difficulty
	}
	if err := rows.Err(); err != nil {
		return nil, chainerr.NewDatabaseError(err)
	}

	store := utxo.New()
	utxoRows, err := s.db.Query(`SELECT utxo_hash, serialized_triangle FROM utxo_set`)
	if err != nil {
		return nil, chainerr.NewDatabaseError(err)
	}
	defer utxoRows.Close()

	for utxoRows.Next() {
		var hashHex string
		var triBytes []byte
		if err := utxoRows.Scan(&hashHex, &triBytes); err != nil {
			return nil, chainerr.NewDatabaseError(err)
		}
		hash, err := types.HexToHash(hashHex)
		if err != nil {
			return nil, chainerr.NewSerializationError(err)
		}
		var triangle geometry.Triangle
		if err := json.Unmarshal(triBytes, &triangle); err != nil {
			return nil, chainerr.NewSerializationError(err)
		}
		store.Put(hash, triangle)
	}
	if err := utxoRows.Err(); err != nil {
		return nil, chainerr.NewDatabaseError(err)
	}

	difficulty, err := s.readDifficulty()
	if err != nil {
		return nil, err
	}
	if len(blocks) > 0 && difficulty != lastDifficulty {
		log.Storage.Warn().
			Uint32("metadata_difficulty", difficulty).
			Uint32("header_difficulty", lastDifficulty).
			Msg("difficulty metadata disagrees with last block header, trusting header")
		difficulty = lastDifficulty
	}

	return &LoadedChain{Blocks: blocks, UTXOs: store, Difficulty: difficulty}, nil
}

func (s *SQLiteStore) readDifficulty() (uint32, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, difficultyKey).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, chainerr.NewDatabaseError(err)
	}
	var difficulty uint32
	if _, err := fmt.Sscanf(value, "%d", &difficulty); err != nil {
		return 0, chainerr.NewSerializationError(err)
	}
	return difficulty, nil
}
