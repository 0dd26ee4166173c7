package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signature — r/s/v подпись экшена в том виде, в каком её ждёт /exchange.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// Signer подписывает сериализованный action с nonce. Реальная подпись
// кошелька (EIP-712) — внешний коллаборатор и в ядро не входит; бот умеет
// работать с любой реализацией этого интерфейса.
type Signer interface {
	Sign(action []byte, nonce int64) (Signature, error)
}

// HmacSigner — детерминированная подпись для paper-режима и тестов.
// Боевой /exchange её не примет, но весь остальной пайплайн (сериализация,
// nonce, формат запроса) проходит как настоящий.
type HmacSigner struct {
	secret []byte
}

func NewHmacSigner(secret string) *HmacSigner {
	return &HmacSigner{secret: []byte(secret)}
}

func (s *HmacSigner) Sign(action []byte, nonce int64) (Signature, error) {
	if len(s.secret) == 0 {
		return Signature{}, fmt.Errorf("signer: empty secret")
	}

	h := hmac.New(sha256.New, s.secret)
	h.Write(action)
	fmt.Fprintf(h, "%d", nonce)
	sum := h.Sum(nil)

	// первая половина в r, вторая в s
	return Signature{
		R: "0x" + hex.EncodeToString(sum[:16]),
		S: "0x" + hex.EncodeToString(sum[16:]),
		V: 27,
	}, nil
}
