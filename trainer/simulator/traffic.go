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

package simulator

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nocsentry/nocsentry/pkg/util/fileutils"
)

const (
	// attackPacketSize is the packet size of the injected flow.
	attackPacketSize = 1

	// attackDuration is the number of cycles the injected flow lasts.
	attackDuration = 1000000
)

// AttackFlow returns the traffic table line of a flow from src to dst
// injecting at pir, src and dst are global router ids.
func AttackFlow(src, dst int, pir float64) string {
	rate := strconv.FormatFloat(pir, 'g', -1, 64)
	return fmt.Sprintf("%d\t%d\t%s\t%s\t%d\t%d\n", src, dst, rate, rate, attackPacketSize, attackDuration)
}

// WriteTrafficTables writes the baseline traffic table, a copy of the
// benchmark, and the attack traffic table, the benchmark preceded by the
// attack flow.
func WriteTrafficTables(benchmark, baseline, attack, flow string) error {
	if _, err := fileutils.CopyFile(baseline, benchmark); err != nil {
		return err
	}

	src, err := os.Open(benchmark)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fileutils.OpenFile(attack, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.WriteString(dst, flow); err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	return nil
}
