// elLabel: unsupervised genotype clustering for SNP arrays.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ellabel/blob/master/LICENSE.txt>.

package internal

import "sync"

var bytePool = sync.Pool{New: func() interface{} {
	return []byte(nil)
}}

/*
ReserveByteBuffer uses a sync.Pool to either reuse or make a slice of
bytes of length 0, but of capacity potentially larger than 0. The call
table writer formats one marker per buffer.

Use ReleaseByteBuffer to return slices of bytes to the internal pool.
*/
func ReserveByteBuffer() []byte {
	return bytePool.Get().([]byte)[:0]
}

// ReleaseByteBuffer returns buf to the pool of ReserveByteBuffer.
func ReleaseByteBuffer(buf []byte) {
	bytePool.Put(buf)
}

var floatPool = sync.Pool{New: func() interface{} {
	return []float64(nil)
}}

// ReserveFloats returns a slice of n float64 values, reusing the storage
// of previously released slices where possible. The values are not
// cleared.
func ReserveFloats(n int) []float64 {
	buf := floatPool.Get().([]float64)
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

// ReleaseFloats returns buf to the pool of ReserveFloats.
func ReleaseFloats(buf []float64) {
	floatPool.Put(buf[:0])
}
