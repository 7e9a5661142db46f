package mongo

import (
	"context"
	"errors"
	"fmt"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRoomRepository struct {
	rooms collection[domain.Room]
}

func NewMongoRoomRepository(db *mongo.Database) ports.RoomRepository {
	return &MongoRoomRepository{rooms: collection[domain.Room]{coll: db.Collection(RoomsCollection)}}
}

func (r *MongoRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	ok, err := r.rooms.insert(ctx, room)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRoomExists
	}
	return nil
}

func (r *MongoRoomRepository) GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	room, err := r.rooms.get(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *MongoRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	return r.rooms.find(ctx, bson.M{})
}

func (r *MongoRoomRepository) AppendParticipant(ctx context.Context, id domain.RoomID, p domain.Participant) (*domain.Room, error) {
	var room domain.Room
	err := r.rooms.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": string(id)},
		bson.M{"$push": bson.M{"participants": p}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to append participant: %w", err)
	}
	return &room, nil
}

func (r *MongoRoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	return r.rooms.delete(ctx, string(id))
}

type MongoDegreeRepository struct {
	degrees collection[domain.DegreeRecord]
}

func NewMongoDegreeRepository(db *mongo.Database) ports.DegreeRepository {
	return &MongoDegreeRepository{degrees: collection[domain.DegreeRecord]{coll: db.Collection(DegreeCollection)}}
}

func (r *MongoDegreeRepository) Create(ctx context.Context, rec *domain.DegreeRecord) error {
	ok, err := r.degrees.insert(ctx, rec)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrStudentExists
	}
	return nil
}

func (r *MongoDegreeRepository) GetByRollNo(ctx context.Context, rollNo string) (*domain.DegreeRecord, error) {
	rec, err := r.degrees.get(ctx, rollNo)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrStudentNotFound
	}
	return rec, nil
}

func (r *MongoDegreeRepository) List(ctx context.Context) ([]*domain.DegreeRecord, error) {
	return r.degrees.find(ctx, bson.M{})
}

func (r *MongoDegreeRepository) Delete(ctx context.Context, rollNo string) error {
	return r.degrees.delete(ctx, rollNo)
}

type MongoStudentPhotoRepository struct {
	photos collection[domain.StudentPhoto]
}

func NewMongoStudentPhotoRepository(db *mongo.Database) ports.StudentPhotoRepository {
	return &MongoStudentPhotoRepository{photos: collection[domain.StudentPhoto]{coll: db.Collection(StudentsCollection)}}
}

func (r *MongoStudentPhotoRepository) Put(ctx context.Context, photo *domain.StudentPhoto) error {
	return r.photos.replace(ctx, photo.RollNumber, photo)
}

func (r *MongoStudentPhotoRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*domain.StudentPhoto, error) {
	photo, err := r.photos.get(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, domain.ErrPhotoNotFound
	}
	return photo, nil
}

func (r *MongoStudentPhotoRepository) Delete(ctx context.Context, rollNumber string) error {
	return r.photos.delete(ctx, rollNumber)
}

type MongoPaperRepository struct {
	papers collection[domain.Paper]
}

func NewMongoPaperRepository(db *mongo.Database) ports.PaperRepository {
	return &MongoPaperRepository{papers: collection[domain.Paper]{coll: db.Collection(PapersCollection)}}
}

func (r *MongoPaperRepository) Put(ctx context.Context, paper *domain.Paper) error {
	return r.papers.replace(ctx, paper.PaperID, paper)
}

func (r *MongoPaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	paper, err := r.papers.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, domain.ErrPaperNotFound
	}
	return paper, nil
}

func (r *MongoPaperRepository) List(ctx context.Context) ([]*domain.Paper, error) {
	return r.papers.find(ctx, bson.M{})
}

func (r *MongoPaperRepository) FindByQPCode(ctx context.Context, qpCode string) ([]*domain.Paper, error) {
	return r.papers.find(ctx, bson.M{"qpCode": qpCode},
		options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}}))
}

func (r *MongoPaperRepository) Delete(ctx context.Context, id string) error {
	return r.papers.delete(ctx, id)
}
