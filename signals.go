package locket

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for locket events.
var (
	SignalKeyBound         = capitan.NewSignal("locket.key.bound", "Key bound to a field")
	SignalKeyUnbound       = capitan.NewSignal("locket.key.unbound", "Key removed from a field")
	SignalKeyRejected      = capitan.NewSignal("locket.key.rejected", "Key binding refused")
	SignalEncodeComplete   = capitan.NewSignal("locket.encode.complete", "Field value encoded to a token")
	SignalDecodeComplete   = capitan.NewSignal("locket.decode.complete", "Token decoded to a field value")
	SignalProcessorCreated = capitan.NewSignal("locket.processor.created", "Processor instantiated")
	SignalStoreStart       = capitan.NewSignal("locket.store.start", "Store operation beginning")
	SignalStoreComplete    = capitan.NewSignal("locket.store.complete", "Store operation finished")
	SignalLoadStart        = capitan.NewSignal("locket.load.start", "Load operation beginning")
	SignalLoadComplete     = capitan.NewSignal("locket.load.complete", "Load operation finished")
)

// Keys for typed event data.
var (
	KeyOwner          = capitan.NewStringKey("owner")
	KeyField          = capitan.NewStringKey("field")
	KeyFingerprint    = capitan.NewStringKey("fingerprint")
	KeyContentType    = capitan.NewStringKey("content_type")
	KeyTypeName       = capitan.NewStringKey("type_name")
	KeyBytes          = capitan.NewIntKey("size")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyErr            = capitan.NewErrorKey("error")
	KeyEncryptedCount = capitan.NewIntKey("encrypted_count")
	KeyDecryptedCount = capitan.NewIntKey("decrypted_count")
)

func emitKeyBound(ctx context.Context, owner, field, fingerprint string) {
	capitan.Emit(ctx, SignalKeyBound,
		KeyOwner.Field(owner),
		KeyField.Field(field),
		KeyFingerprint.Field(fingerprint),
	)
}

func emitKeyUnbound(ctx context.Context, owner, field string) {
	capitan.Emit(ctx, SignalKeyUnbound,
		KeyOwner.Field(owner),
		KeyField.Field(field),
	)
}

func emitKeyRejected(ctx context.Context, owner, field string, err error) {
	capitan.Error(ctx, SignalKeyRejected,
		KeyOwner.Field(owner),
		KeyField.Field(field),
		KeyErr.Field(err),
	)
}

// emitEncodeComplete emits the completion event for a single field encode.
func emitEncodeComplete(ctx context.Context, owner, field string, size int, duration time.Duration, err error) {
	fields := transformFields(owner, field, size, duration)
	if err != nil {
		fields = append(fields, KeyErr.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitDecodeComplete emits the completion event for a single field decode.
func emitDecodeComplete(ctx context.Context, owner, field string, size int, duration time.Duration, err error) {
	fields := transformFields(owner, field, size, duration)
	if err != nil {
		fields = append(fields, KeyErr.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}

func transformFields(owner, field string, size int, duration time.Duration) []capitan.Field {
	return []capitan.Field{
		KeyOwner.Field(owner),
		KeyField.Field(field),
		KeyBytes.Field(size),
		KeyDuration.Field(duration),
	}
}

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitStoreStart emits an event when store begins.
func emitStoreStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalStoreStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitStoreComplete emits an event when store finishes.
func emitStoreComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, encrypted int, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyBytes.Field(size),
		KeyDuration.Field(duration),
		KeyEncryptedCount.Field(encrypted),
	}
	if err != nil {
		fields = append(fields, KeyErr.Field(err))
		capitan.Error(ctx, SignalStoreComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalStoreComplete, fields...)
	}
}

// emitLoadStart emits an event when load begins.
func emitLoadStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalLoadStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitLoadComplete emits an event when load finishes.
func emitLoadComplete(ctx context.Context, contentType, typeName string, duration time.Duration, decrypted int, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyDecryptedCount.Field(decrypted),
	}
	if err != nil {
		fields = append(fields, KeyErr.Field(err))
		capitan.Error(ctx, SignalLoadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalLoadComplete, fields...)
	}
}
