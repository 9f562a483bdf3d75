package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// FromWatermill copies Watermill metadata. It never returns nil.
func FromWatermill(md message.Metadata) Metadata {
	return Metadata(md).Clone()
}

// ToWatermill copies metadata into a Watermill map, leaving existing keys on
// dst untouched unless md overrides them.
func ToWatermill(md Metadata, dst message.Metadata) message.Metadata {
	if dst == nil {
		dst = make(message.Metadata, len(md))
	}
	for k, v := range md {
		dst[k] = v
	}
	return dst
}
