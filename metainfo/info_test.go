// Copyright 2020 xgfone, 2024 torrentox
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metainfo

import "testing"

func TestInfoCountPieces(t *testing.T) {
	cases := []struct {
		info   Info
		pieces int
		total  uint64
	}{
		{Info{PieceLength: 16384, Layout: SingleFile{Length: 32768}}, 2, 32768},
		{Info{PieceLength: 16384, Layout: SingleFile{Length: 32769}}, 3, 32769},
		{Info{PieceLength: 16384, Layout: SingleFile{Length: 0}}, 0, 0},
		{Info{PieceLength: 64, Layout: MultiFile{Files: []File{
			{Length: 100, Paths: []string{"file1"}},
			{Length: 200, Paths: []string{"file2"}},
			{Length: 300, Paths: []string{"file3"}},
		}}}, 10, 600},
		{Info{PieceLength: 1, Pieces: make(Hashes, 4), Layout: SingleFile{Length: 100}}, 4, 100},
		{Info{PieceLength: 1}, 0, 0},
	}

	for i, c := range cases {
		if n := c.info.CountPieces(); n != c.pieces {
			t.Errorf("%d: expect %d pieces, but got %d", i, c.pieces, n)
		}
		if total := c.info.TotalLength(); total != c.total {
			t.Errorf("%d: expect total length %d, but got %d", i, c.total, total)
		}
	}
}

func TestInfoAllFiles(t *testing.T) {
	FileInfo := Info{Name: "test_rw", PieceLength: 64, Layout: SingleFile{Length: 600}}
	if FileInfo.IsDir() {
		t.Errorf("unexpected directory")
	}
	if files := FileInfo.AllFiles(); len(files) != 1 {
		t.Errorf("expect %d file, but got %d", 1, len(files))
	} else if files[0].String() != "test_rw" || files[0].Length != 600 {
		t.Errorf("unexpected file %+v", files[0])
	}

	DirInfo := Info{
		Name:        "test_rw",
		PieceLength: 64,
		Layout: MultiFile{Files: []File{
			{Length: 100, Paths: []string{"file1"}},
			{Length: 200, Paths: []string{"file2"}},
		}},
	}
	if !DirInfo.IsDir() {
		t.Errorf("expect a directory")
	}
	if files := DirInfo.AllFiles(); len(files) != 2 {
		t.Errorf("expect %d files, but got %d", 2, len(files))
	} else if files[1].String() != "file2" {
		t.Errorf("expect file '%s', but got '%s'", "file2", files[1])
	}
}
