package parquetdb

import (
	"encoding/json"
	"path/filepath"
	"runtime"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-hillshade/ownmap"
	"github.com/jamesrr39/ownmap-hillshade/ownmapdal"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	parquetwriter "github.com/xitongsys/parquet-go/writer"
)

var _ ownmapdal.FinalStorage = &Importer{}

type Importer struct {
	fs            gofs.Fs
	dirPath       string
	tilesFile     source.ParquetFile
	tilesWriter   *parquetwriter.ParquetWriter
	writerStopped bool
}

func NewImporter(fs gofs.Fs, dirPath string) (*Importer, errorsx.Error) {
	_, err := fs.Stat(dirPath)
	if err == nil {
		return nil, errorsx.Errorf("%q already exists", dirPath)
	}

	err = fs.MkdirAll(dirPath, 0755)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	f, err := local.NewLocalFileWriter(filepath.Join(dirPath, TilesFileName))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	pw, err := parquetwriter.NewParquetWriter(f, new(tileRow), int64(runtime.NumCPU()))
	if err != nil {
		f.Close()
		return nil, errorsx.Wrap(err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024 //128M
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	return &Importer{
		fs:          fs,
		dirPath:     dirPath,
		tilesFile:   f,
		tilesWriter: pw,
	}, nil
}

func (i *Importer) ImportTiles(tiles []*ownmapdal.RawTile) errorsx.Error {
	for _, tile := range tiles {
		err := i.tilesWriter.Write(tileRow{
			Z:    int32(tile.Coordinate.Z),
			X:    int32(tile.Coordinate.X),
			Y:    int32(tile.Coordinate.Y),
			Data: string(tile.Data),
		})
		if err != nil {
			return errorsx.Wrap(err, "tile", tile.Coordinate)
		}
	}

	return nil
}

func (i *Importer) stopWriting() errorsx.Error {
	if i.writerStopped {
		return nil
	}
	i.writerStopped = true

	err := i.tilesWriter.WriteStop()
	if err != nil {
		i.tilesFile.Close()
		return errorsx.Wrap(err)
	}

	err = i.tilesFile.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (i *Importer) Commit(metadata *ownmap.DatasetMetadata) (ownmapdal.DataSourceConn, errorsx.Error) {
	err := i.stopWriting()
	if err != nil {
		return nil, err
	}

	metadataBytes, marshalErr := json.MarshalIndent(metadata, "", "\t")
	if marshalErr != nil {
		return nil, errorsx.Wrap(marshalErr)
	}

	writeErr := i.fs.WriteFile(filepath.Join(i.dirPath, MetadataFileName), metadataBytes, 0644)
	if writeErr != nil {
		return nil, errorsx.Wrap(writeErr)
	}

	ds, err := NewParquetDatasource(i.fs, i.dirPath)
	if err != nil {
		return nil, err
	}

	return ds, nil
}

func (i *Importer) Rollback() errorsx.Error {
	err := i.stopWriting()
	if err != nil {
		return err
	}

	removeErr := i.fs.RemoveAll(i.dirPath)
	if removeErr != nil {
		return errorsx.Wrap(removeErr)
	}

	return nil
}
