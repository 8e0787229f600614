/*
Package nnueformat is a Go port of the weight-file container helpers of
Stockfish's NNUE evaluation.

This code is derived from Stockfish, a UCI chess playing engine.
Copyright (C) 2004-2026 The Stockfish developers (see AUTHORS file)

Stockfish is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Stockfish is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

Original C++ source: https://github.com/official-stockfish/Stockfish

# Scope

This package is architecture-agnostic: it carries only the binary
container format NNUE weight files are written in (the LEB128-compressed
integer encoding and little-endian scalar/slice I/O helpers from
nnue_common.h), not Stockfish's HalfKAv2_hm network topology. The
feature set, accumulator, and layer stack are Shogi-specific and live in
internal/nnue, which reads and writes its quantized weights through the
helpers here.
*/
package nnueformat
