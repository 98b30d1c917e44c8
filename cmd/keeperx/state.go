package main

import (
	"encoding/json"
	"fmt"
	"io"

	"keeperx/engine/actors"
	"keeperx/engine/library"
	"keeperx/state/token"
)

const (
	mind = "token"
	db   = "current"
)

// loadToken builds the engine from config and restores the persisted snapshot, if any.
func loadToken(opts ...token.Option) (*token.Token, error) {
	conf := actors.MakeOrGetConfig()
	params, err := actors.ParamsFromConfig(conf)
	if err != nil {
		return nil, err
	}
	snapshot, found, err := readSnapshot()
	if err != nil {
		return nil, err
	}
	pair := conf.GetString("pairAddress")
	if found {
		pair = snapshot.Pair
	}
	if pair == "" {
		return nil, fmt.Errorf("pairAddress is not set in %sconfig.yaml", conf.GetString("rootDir"))
	}
	opts = append([]token.Option{token.WithParams(params)}, opts...)
	tok, err := token.New(pair, opts...)
	if err != nil {
		return nil, err
	}
	if found {
		if err = tok.Restore(snapshot); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

func readSnapshot() (s token.Snapshot, found bool, err error) {
	file, ok := actors.Open(mind, db)
	if !ok {
		return s, false, nil
	}
	defer file.Close()
	b, err := io.ReadAll(file)
	if err != nil {
		return s, false, err
	}
	if err = json.Unmarshal(b, &s); err != nil {
		return s, false, fmt.Errorf("%w: %s", library.ErrCorruptSnapshot, err.Error())
	}
	return s, true, nil
}

func persist(tok *token.Token) error {
	b, err := json.MarshalIndent(tok.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err = actors.Write(mind, db, b); err != nil {
		return err
	}
	library.LogCLI(fmt.Sprintf("state persisted, hash %s", tok.StateHash()), 3)
	return nil
}
