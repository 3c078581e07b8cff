/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package winevent

import (
	"encoding/binary"
	"time"
	"unicode/utf16"
)

// EVENTLOGRECORD field offsets (bytes). The legacy read API hands back a
// buffer of variable-length records with this fixed header.
// EVENTLOGRECORD 字段偏移（字节）。旧版读取 API 返回由带此固定头部的变长
// 记录组成的缓冲区。
const (
	recHeaderSize    = 56
	offLength        = 0
	offTimeGenerated = 12
	offEventID       = 20
	offNumStrings    = 26
	offStringOffset  = 36
	offSourceName    = 56
)

// parseRecords decodes every complete EVENTLOGRECORD in buf. Truncated or
// malformed trailing data is ignored rather than failing the whole read.
// parseRecords 解码 buf 中的每条完整 EVENTLOGRECORD。被截断或畸形的尾部
// 数据会被忽略，而不是使整次读取失败。
func parseRecords(buf []byte) []record {
	var records []record

	for len(buf) >= recHeaderSize {
		length := binary.LittleEndian.Uint32(buf[offLength:])
		if length < recHeaderSize || int(length) > len(buf) {
			break
		}
		raw := buf[:length]

		rec := record{
			EventID: binary.LittleEndian.Uint32(raw[offEventID:]),
			Generated: time.Unix(
				int64(binary.LittleEndian.Uint32(raw[offTimeGenerated:])), 0),
		}
		rec.Source, _ = decodeUTF16Z(raw[offSourceName:])

		// Insertion strings are consecutive NUL-terminated UTF-16 strings
		// starting at StringOffset.
		// 插入字符串是从 StringOffset 开始的连续以 NUL 结尾的 UTF-16 字符串。
		numStrings := int(binary.LittleEndian.Uint16(raw[offNumStrings:]))
		strOffset := int(binary.LittleEndian.Uint32(raw[offStringOffset:]))
		for i := 0; i < numStrings && strOffset < len(raw); i++ {
			s, n := decodeUTF16Z(raw[strOffset:])
			rec.Strings = append(rec.Strings, s)
			strOffset += n
		}

		records = append(records, rec)
		buf = buf[length:]
	}

	return records
}

// decodeUTF16Z decodes one NUL-terminated little-endian UTF-16 string and
// returns it together with the number of bytes consumed (including the NUL).
// decodeUTF16Z 解码一个以 NUL 结尾的小端 UTF-16 字符串，并返回字符串及消耗
// 的字节数（含 NUL）。
func decodeUTF16Z(b []byte) (string, int) {
	var units []uint16
	consumed := 0
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		consumed = i + 2
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), consumed
}
