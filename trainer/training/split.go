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

package training

import (
	"math/rand"

	"github.com/nocsentry/nocsentry/trainer/feature"
)

// Split partitions records into a training and a test set. Saturated and
// unsaturated records are shuffled apart and the first ratio of each class
// goes to training, so both sets keep the class proportions.
func Split(records []feature.AnnotatedRecord, ratio float64, rng *rand.Rand) ([]feature.AnnotatedRecord, []feature.AnnotatedRecord) {
	var saturated, unsaturated []feature.AnnotatedRecord
	for _, r := range records {
		if r.Label() == feature.Saturated {
			saturated = append(saturated, r)
		} else {
			unsaturated = append(unsaturated, r)
		}
	}

	var train, test []feature.AnnotatedRecord
	for _, class := range [][]feature.AnnotatedRecord{saturated, unsaturated} {
		shuffle(class, rng)
		n := int(ratio * float64(len(class)))
		train = append(train, class[:n]...)
		test = append(test, class[n:]...)
	}

	shuffle(train, rng)
	shuffle(test, rng)
	return train, test
}

func shuffle(records []feature.AnnotatedRecord, rng *rand.Rand) {
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}
