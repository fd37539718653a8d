/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package strings

import (
	"math"
	"strconv"
	"strings"
)

// IsBlank reports whether the string is empty or holds only white space.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FormatFloat formats v in its shortest form, whole numbers keep one decimal.
func FormatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}

// JoinFloats formats values with FormatFloat and joins them with sep.
func JoinFloats(values []float64, sep string) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = FormatFloat(v)
	}

	return strings.Join(s, sep)
}
