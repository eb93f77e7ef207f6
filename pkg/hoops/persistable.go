package hoops

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/richard-senior/courtline/internal/logger"
	_ "modernc.org/sqlite"
)

var db *sql.DB

// Persistable interface defines methods that persistent objects must implement
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]interface{}
	BeforeSave() error
	AfterSave() error
}

// InitDatabase opens (or re-opens) the database at the given path
func InitDatabase(path string) error {
	if db != nil {
		db.Close()
		db = nil
	}
	var err error
	db, err = sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err = createTables(); err != nil {
		return err
	}
	logger.Info("Database initialized successfully", path)
	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// GetDB returns the database connection, opening the configured path lazily
func GetDB() (*sql.DB, error) {
	if db == nil {
		if err := InitDatabase(Config.DbPath); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// createTables creates all necessary database tables
func createTables() error {
	logger.Info("Creating database tables")

	if err := CreateTable(&TeamGame{}); err != nil {
		return fmt.Errorf("failed to create team game table: %w", err)
	}

	if err := CreateTable(&PlayerGame{}); err != nil {
		return fmt.Errorf("failed to create player game table: %w", err)
	}

	if err := CreateTable(&FetchedGame{}); err != nil {
		return fmt.Errorf("failed to create fetched game ledger: %w", err)
	}

	if err := CreateTable(&StatDistribution{}); err != nil {
		return fmt.Errorf("failed to create stat distribution ledger: %w", err)
	}

	logger.Info("Database tables created successfully")
	return nil
}

// CreateTable creates a table for the given persistable object using struct tags
func CreateTable(obj Persistable) error {
	d, err := GetDB()
	if err != nil {
		return err
	}

	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)

	logger.Debug("Creating table with SQL", createSQL)

	_, err = d.Exec(createSQL)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	// Create indexes
	indexSQL := generateIndexSQL(obj, tableName)
	for _, query := range indexSQL {
		logger.Debug("Creating index with SQL", query)
		if _, err := d.Exec(query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}

	return nil
}

// persistentField pairs a struct field with its value, after flattening
// anonymous embedded structs such as the StatLine block
type persistentField struct {
	field reflect.StructField
	value reflect.Value
}

// persistentFields walks the struct, recursing into anonymous embedded
// structs, and returns the fields that carry a dbtype tag
func persistentFields(objValue reflect.Value) []persistentField {
	objType := objValue.Type()
	var out []persistentField

	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		value := objValue.Field(i)

		if !field.IsExported() {
			continue
		}

		// Flatten embedded stat blocks
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			out = append(out, persistentFields(value)...)
			continue
		}

		// Skip fields marked as non-persistable or without database type
		if field.Tag.Get("persist") == "false" || field.Tag.Get("db") == "-" {
			continue
		}
		if field.Tag.Get("dbtype") == "" {
			continue
		}

		out = append(out, persistentField{field: field, value: value})
	}

	return out
}

func derefValue(obj interface{}) reflect.Value {
	objValue := reflect.ValueOf(obj)
	if objValue.Kind() == reflect.Ptr {
		objValue = objValue.Elem()
	}
	return objValue
}

func columnNameFor(field reflect.StructField) string {
	columnName := field.Tag.Get("column")
	if columnName == "" {
		columnName = strings.ToLower(field.Name)
	}
	return columnName
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj interface{}, tableName string) string {
	var columns []string
	var primaryKeys []string

	for _, pf := range persistentFields(derefValue(obj)) {
		dbType := pf.field.Tag.Get("dbtype")
		columnName := columnNameFor(pf.field)

		if pf.field.Tag.Get("primary") == "true" {
			primaryKeys = append(primaryKeys, columnName)
			dbType = strings.TrimSpace(strings.ReplaceAll(dbType, "PRIMARY KEY", ""))
		}

		columns = append(columns, fmt.Sprintf("%s %s", columnName, dbType))
	}

	// Compound primary key constraint
	if len(primaryKeys) > 0 {
		pkConstraint := fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", "))
		columns = append(columns, pkConstraint)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(columns, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj interface{}, tableName string) []string {
	var indexSQL []string

	for _, pf := range persistentFields(derefValue(obj)) {
		if pf.field.Tag.Get("index") == "" {
			continue
		}

		columnName := columnNameFor(pf.field)
		indexName := fmt.Sprintf("idx_%s_%s", tableName, columnName)
		query := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", indexName, tableName, columnName)
		indexSQL = append(indexSQL, query)
	}

	return indexSQL
}

// executor is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting saves run either standalone or inside a transaction
type executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Save persists the object to the database (INSERT or UPDATE)
func Save(obj Persistable) error {
	d, err := GetDB()
	if err != nil {
		return err
	}
	return saveOn(d, obj)
}

func saveOn(d executor, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}

	exists, err := existsOn(d, obj)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}

	if exists {
		err = update(d, obj)
	} else {
		err = insert(d, obj)
	}

	if err != nil {
		return err
	}

	if err := obj.AfterSave(); err != nil {
		return fmt.Errorf("after save hook failed: %w", err)
	}

	return nil
}

// insert adds a new record to the database
func insert(d executor, obj Persistable) error {
	tableName := obj.GetTableName()

	var columns []string
	var placeholders []string
	var values []interface{}
	for _, pf := range persistentFields(derefValue(obj)) {
		columns = append(columns, columnNameFor(pf.field))
		placeholders = append(placeholders, "?")
		values = append(values, pf.value.Interface())
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	logger.Debug("Insert SQL", query)

	if _, err := d.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", tableName, err)
	}

	return nil
}

// update modifies an existing record in the database
func update(d executor, obj Persistable) error {
	tableName := obj.GetTableName()

	var setPairs []string
	var values []interface{}
	for _, pf := range persistentFields(derefValue(obj)) {
		// Primary key fields never appear in the SET clause
		if pf.field.Tag.Get("primary") == "true" {
			continue
		}
		setPairs = append(setPairs, fmt.Sprintf("%s = ?", columnNameFor(pf.field)))
		values = append(values, pf.value.Interface())
	}

	whereClause, whereValues := buildWhereClause(obj.GetPrimaryKey())
	values = append(values, whereValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", tableName, strings.Join(setPairs, ", "), whereClause)

	logger.Debug("Update SQL", query)

	if _, err := d.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", tableName, err)
	}

	return nil
}

// Exists checks if the object exists in the database
func Exists(obj Persistable) (bool, error) {
	d, err := GetDB()
	if err != nil {
		return false, err
	}
	return existsOn(d, obj)
}

func existsOn(d executor, obj Persistable) (bool, error) {
	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, whereClause)

	var count int
	if err := d.QueryRow(query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}

	return count > 0, nil
}

// getSelectData extracts column names and scan destinations for SELECT
func getSelectData(obj interface{}) ([]string, []interface{}) {
	var columns []string
	var destinations []interface{}

	for _, pf := range persistentFields(derefValue(obj)) {
		columns = append(columns, columnNameFor(pf.field))
		destinations = append(destinations, pf.value.Addr().Interface())
	}

	return columns, destinations
}

// FindByPrimaryKey retrieves an object by its primary key
func FindByPrimaryKey(obj Persistable, primaryKey map[string]interface{}) error {
	d, err := GetDB()
	if err != nil {
		return err
	}

	tableName := obj.GetTableName()
	columns, destinations := getSelectData(obj)
	whereClause, values := buildWhereClause(primaryKey)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)

	logger.Debug("FindByPrimaryKey SQL", query)

	row := d.QueryRow(query, values...)
	err = row.Scan(destinations...)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("record not found in %s", tableName)
		}
		return fmt.Errorf("failed to scan row from %s: %w", tableName, err)
	}

	return nil
}

// FindAll retrieves all records of the given type
func FindAll(obj Persistable) ([]interface{}, error) {
	return findRows(obj, "", nil)
}

// FindWhere executes a custom WHERE query
func FindWhere(obj Persistable, whereClause string, args ...interface{}) ([]interface{}, error) {
	return findRows(obj, whereClause, args)
}

func findRows(obj Persistable, whereClause string, args []interface{}) ([]interface{}, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}

	tableName := obj.GetTableName()
	columns, _ := getSelectData(obj)

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), tableName)
	if whereClause != "" {
		query = fmt.Sprintf("%s WHERE %s", query, whereClause)
	}

	logger.Debug("Find SQL", query)

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	var results []interface{}
	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}

	for rows.Next() {
		newObj := reflect.New(objType).Interface()
		_, destinations := getSelectData(newObj)

		err := rows.Scan(destinations...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}

		results = append(results, newObj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}

	return results, nil
}

// CountWhere returns the number of rows matching the given WHERE clause
func CountWhere(obj Persistable, whereClause string, args ...interface{}) (int, error) {
	d, err := GetDB()
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", obj.GetTableName())
	if whereClause != "" {
		query = fmt.Sprintf("%s WHERE %s", query, whereClause)
	}

	var count int
	if err := d.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", obj.GetTableName(), err)
	}
	return count, nil
}

// BulkSave saves multiple objects in one transaction; a failure rolls the
// whole batch back
func BulkSave(objects []Persistable) error {
	d, err := GetDB()
	if err != nil {
		return err
	}

	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objects {
		if err := saveOn(tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// buildWhereClause builds a WHERE clause from a primary key map
func buildWhereClause(primaryKey map[string]interface{}) (string, []interface{}) {
	var conditions []string
	var values []interface{}

	for column, value := range primaryKey {
		conditions = append(conditions, fmt.Sprintf("%s = ?", column))
		values = append(values, value)
	}

	return strings.Join(conditions, " AND "), values
}
